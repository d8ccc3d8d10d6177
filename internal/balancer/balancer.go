// Package balancer splits a selection of players into two teams.
//
// Balance mode is a greedy heuristic over skill levels with goalkeepers spread first;
// it is deterministic for a given input order. Shuffle mode is a plain random split.
// Neither mode touches storage.
package balancer

import (
	"errors"
	"math/rand/v2"
	"sort"

	"github.com/maxviazov/pelada-service/internal/model"
)

var (
	// ErrNotEnoughPlayers means fewer than two players were selected; callers treat it as a no-op.
	ErrNotEnoughPlayers = errors.New("at least two players must be selected")
	// ErrDuplicatePlayer means the same player id appears twice in the input.
	ErrDuplicatePlayer = errors.New("player selected more than once")
	// ErrSingleGoalkeeper means exactly one goalkeeper was selected, so no fair split exists.
	ErrSingleGoalkeeper = errors.New("exactly one goalkeeper selected")
	// ErrNoGoalkeeper is advisory: at least one team ended up without a goalkeeper.
	ErrNoGoalkeeper = errors.New("a team has no goalkeeper")
)

// Mode selects the partitioning strategy.
type Mode string

const (
	ModeBalance Mode = "balance"
	ModeShuffle Mode = "shuffle"
)

// ParseMode defaults an empty string to balance.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeBalance:
		return ModeBalance, true
	case ModeShuffle:
		return ModeShuffle, true
	}
	return "", false
}

// Result is a proposed partition. Warning is ErrNoGoalkeeper or nil.
type Result struct {
	TeamA   []model.Player
	TeamB   []model.Player
	Warning error
}

// Balance partitions players by skill:
//   - goalkeepers, strongest first, alternate A, B, A, ...
//   - outfield players, strongest first, join whichever team has the lower skill sum (ties go to A)
//
// Sorting is stable, so equal skill levels keep their input order.
func Balance(players []model.Player) (Result, error) {
	if err := validate(players); err != nil {
		return Result{}, err
	}

	var keepers, outfield []model.Player
	for _, p := range players {
		if p.IsGoalkeeper() {
			keepers = append(keepers, p)
		} else {
			outfield = append(outfield, p)
		}
	}
	if len(keepers) == 1 {
		return Result{}, ErrSingleGoalkeeper
	}

	bySkillDesc(keepers)
	bySkillDesc(outfield)

	var res Result
	sumA, sumB := 0, 0
	for i, p := range keepers {
		if i%2 == 0 {
			res.TeamA = append(res.TeamA, p)
			sumA += p.SkillLevel
		} else {
			res.TeamB = append(res.TeamB, p)
			sumB += p.SkillLevel
		}
	}
	for _, p := range outfield {
		if sumA <= sumB {
			res.TeamA = append(res.TeamA, p)
			sumA += p.SkillLevel
		} else {
			res.TeamB = append(res.TeamB, p)
			sumB += p.SkillLevel
		}
	}

	if countKeepers(res.TeamA) == 0 || countKeepers(res.TeamB) == 0 {
		res.Warning = ErrNoGoalkeeper
	}
	return res, nil
}

// Shuffle randomly permutes players and splits them at ceil(n/2).
// The first part becomes team A. No fairness is attempted.
func Shuffle(players []model.Player, rng *rand.Rand) (Result, error) {
	if err := validate(players); err != nil {
		return Result{}, err
	}
	shuffled := make([]model.Player, len(players))
	copy(shuffled, players)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	mid := (len(shuffled) + 1) / 2
	return Result{
		TeamA: shuffled[:mid:mid],
		TeamB: shuffled[mid:],
	}, nil
}

// SkillSum adds up skill levels of a roster.
func SkillSum(team []model.Player) int {
	sum := 0
	for _, p := range team {
		sum += p.SkillLevel
	}
	return sum
}

// AverageSkill returns the mean skill of a roster, 0 for an empty one.
func AverageSkill(team []model.Player) float64 {
	if len(team) == 0 {
		return 0
	}
	return float64(SkillSum(team)) / float64(len(team))
}

func validate(players []model.Player) error {
	if len(players) < 2 {
		return ErrNotEnoughPlayers
	}
	seen := make(map[string]struct{}, len(players))
	for _, p := range players {
		if _, dup := seen[p.ID]; dup {
			return ErrDuplicatePlayer
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

func bySkillDesc(ps []model.Player) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].SkillLevel > ps[j].SkillLevel })
}

func countKeepers(team []model.Player) int {
	n := 0
	for _, p := range team {
		if p.IsGoalkeeper() {
			n++
		}
	}
	return n
}
