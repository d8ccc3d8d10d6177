package balancer_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/pelada-service/internal/balancer"
	"github.com/maxviazov/pelada-service/internal/model"
)

func player(id string, skill int, pos model.Position) model.Player {
	return model.Player{ID: id, Name: id, SkillLevel: skill, Position: pos, Active: true}
}

func idsOf(ps []model.Player) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestBalance_TwoKeepersAndFourOutfield(t *testing.T) {
	in := []model.Player{
		player("g1", 8, model.PositionGoalkeeper),
		player("g2", 6, model.PositionGoalkeeper),
		player("o1", 9, model.PositionForward),
		player("o2", 7, model.PositionMidfielder),
		player("o3", 5, model.PositionDefender),
		player("o4", 3, model.PositionForward),
	}
	res, err := balancer.Balance(in)
	require.NoError(t, err)
	assert.Nil(t, res.Warning)

	// A: g1(8); B: g2(6); o1 -> B (15); o2 -> A (15); o3 -> A on tie (20); o4 -> B (18)
	assert.Equal(t, []string{"g1", "o2", "o3"}, idsOf(res.TeamA))
	assert.Equal(t, []string{"g2", "o1", "o4"}, idsOf(res.TeamB))
	assert.Equal(t, 20, balancer.SkillSum(res.TeamA))
	assert.Equal(t, 18, balancer.SkillSum(res.TeamB))
}

func TestBalance_SingleGoalkeeperFails(t *testing.T) {
	in := []model.Player{
		player("g1", 5, model.PositionGoalkeeper),
		player("o1", 5, model.PositionForward),
		player("o2", 5, model.PositionForward),
	}
	_, err := balancer.Balance(in)
	assert.ErrorIs(t, err, balancer.ErrSingleGoalkeeper)
}

func TestBalance_NoGoalkeeperWarning(t *testing.T) {
	in := []model.Player{
		player("a", 10, model.PositionForward),
		player("b", 1, model.PositionForward),
		player("c", 1, model.PositionForward),
		player("d", 1, model.PositionForward),
	}
	res, err := balancer.Balance(in)
	require.NoError(t, err)
	assert.ErrorIs(t, res.Warning, balancer.ErrNoGoalkeeper)
	// The heavy player sits alone against the rest.
	assert.Equal(t, []string{"a"}, idsOf(res.TeamA))
	assert.Equal(t, []string{"b", "c", "d"}, idsOf(res.TeamB))
}

func TestBalance_ThreeKeepersAlternate(t *testing.T) {
	in := []model.Player{
		player("g1", 4, model.PositionGoalkeeper),
		player("g2", 9, model.PositionGoalkeeper),
		player("g3", 6, model.PositionGoalkeeper),
	}
	res, err := balancer.Balance(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"g2", "g1"}, idsOf(res.TeamA))
	assert.Equal(t, []string{"g3"}, idsOf(res.TeamB))
	assert.Nil(t, res.Warning)
}

func TestBalance_RejectsSmallOrDuplicateInput(t *testing.T) {
	_, err := balancer.Balance(nil)
	assert.ErrorIs(t, err, balancer.ErrNotEnoughPlayers)
	_, err = balancer.Balance([]model.Player{player("a", 1, model.PositionForward)})
	assert.ErrorIs(t, err, balancer.ErrNotEnoughPlayers)

	dup := player("a", 1, model.PositionForward)
	_, err = balancer.Balance([]model.Player{dup, dup})
	assert.ErrorIs(t, err, balancer.ErrDuplicatePlayer)
}

func TestBalance_PartitionAndGreedyBound(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for round := 0; round < 200; round++ {
		n := 2 + rng.IntN(20)
		in := make([]model.Player, 0, n)
		maxSkill := 0
		for i := 0; i < n; i++ {
			skill := 1 + rng.IntN(10)
			if skill > maxSkill {
				maxSkill = skill
			}
			in = append(in, player(fmt.Sprintf("p%02d", i), skill, model.PositionForward))
		}

		res, err := balancer.Balance(in)
		require.NoError(t, err)

		seen := map[string]int{}
		for _, p := range append(append([]model.Player{}, res.TeamA...), res.TeamB...) {
			seen[p.ID]++
		}
		require.Len(t, seen, n, "union must equal input")
		for id, c := range seen {
			require.Equal(t, 1, c, "player %s assigned twice", id)
		}

		diff := balancer.SkillSum(res.TeamA) - balancer.SkillSum(res.TeamB)
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff, maxSkill)
	}
}

func TestBalance_Deterministic(t *testing.T) {
	in := []model.Player{
		player("x", 5, model.PositionForward),
		player("y", 5, model.PositionDefender),
		player("z", 5, model.PositionMidfielder),
		player("w", 5, model.PositionForward),
	}
	first, err := balancer.Balance(in)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := balancer.Balance(in)
		require.NoError(t, err)
		assert.Equal(t, idsOf(first.TeamA), idsOf(again.TeamA))
		assert.Equal(t, idsOf(first.TeamB), idsOf(again.TeamB))
	}
	// Equal skills keep input order: x->A, y->B, z->A, w->B.
	assert.Equal(t, []string{"x", "z"}, idsOf(first.TeamA))
}

func TestBalance_DoesNotReorderInput(t *testing.T) {
	in := []model.Player{
		player("low", 1, model.PositionForward),
		player("high", 9, model.PositionForward),
	}
	_, err := balancer.Balance(in)
	require.NoError(t, err)
	assert.Equal(t, "low", in[0].ID)
}

func TestShuffle_SplitsAtCeil(t *testing.T) {
	for _, n := range []int{2, 3, 7, 10} {
		in := make([]model.Player, 0, n)
		for i := 0; i < n; i++ {
			in = append(in, player(fmt.Sprintf("p%d", i), 5, model.PositionForward))
		}
		res, err := balancer.Shuffle(in, rand.New(rand.NewPCG(uint64(n), 1)))
		require.NoError(t, err)
		assert.Len(t, res.TeamA, (n+1)/2)
		assert.Len(t, res.TeamB, n/2)
		assert.ElementsMatch(t, idsOf(in), append(idsOf(res.TeamA), idsOf(res.TeamB)...))
	}
}

func TestShuffle_SameSeedSameSplit(t *testing.T) {
	in := []model.Player{
		player("a", 1, model.PositionForward),
		player("b", 2, model.PositionForward),
		player("c", 3, model.PositionForward),
		player("d", 4, model.PositionForward),
	}
	r1, err := balancer.Shuffle(in, rand.New(rand.NewPCG(42, 42)))
	require.NoError(t, err)
	r2, err := balancer.Shuffle(in, rand.New(rand.NewPCG(42, 42)))
	require.NoError(t, err)
	assert.Equal(t, idsOf(r1.TeamA), idsOf(r2.TeamA))
}

func TestParseMode(t *testing.T) {
	m, ok := balancer.ParseMode("")
	assert.True(t, ok)
	assert.Equal(t, balancer.ModeBalance, m)
	m, ok = balancer.ParseMode("shuffle")
	assert.True(t, ok)
	assert.Equal(t, balancer.ModeShuffle, m)
	_, ok = balancer.ParseMode("random")
	assert.False(t, ok)
}

func TestAverageSkill(t *testing.T) {
	assert.Equal(t, 0.0, balancer.AverageSkill(nil))
	assert.InDelta(t, 2.5, balancer.AverageSkill([]model.Player{
		player("a", 2, model.PositionForward),
		player("b", 3, model.PositionForward),
	}), 1e-9)
}
