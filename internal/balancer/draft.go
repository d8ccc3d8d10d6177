package balancer

import (
	"errors"

	"github.com/maxviazov/pelada-service/internal/model"
)

var (
	ErrNotSelected     = errors.New("player is not selected")
	ErrAlreadyAssigned = errors.New("player is already assigned to a team")
	ErrNotAssigned     = errors.New("player is not assigned to a team")
)

// Draft is the pre-match selection and team assignment.
// It is edited by balancer runs and manual moves; nothing re-balances it automatically.
// A Draft is not safe for concurrent use.
type Draft struct {
	order   []string
	players map[string]model.Player
	teamA   []string
	teamB   []string
}

func NewDraft() *Draft {
	return &Draft{players: map[string]model.Player{}}
}

// Select replaces the selection. Assignments of players that stay selected are kept,
// the rest are dropped.
func (d *Draft) Select(players []model.Player) {
	d.order = d.order[:0]
	d.players = make(map[string]model.Player, len(players))
	for _, p := range players {
		if _, dup := d.players[p.ID]; dup {
			continue
		}
		d.order = append(d.order, p.ID)
		d.players[p.ID] = p
	}
	d.teamA = d.keepSelected(d.teamA)
	d.teamB = d.keepSelected(d.teamB)
}

// Apply replaces both teams with a balancer result. Players in the result join the selection.
func (d *Draft) Apply(r Result) {
	for _, p := range append(append([]model.Player{}, r.TeamA...), r.TeamB...) {
		if _, ok := d.players[p.ID]; !ok {
			d.order = append(d.order, p.ID)
		}
		d.players[p.ID] = p
	}
	d.teamA = ids(r.TeamA)
	d.teamB = ids(r.TeamB)
}

// Refresh replaces the stored copies of already selected players. Players that are not
// selected are ignored; order and assignments are unchanged.
func (d *Draft) Refresh(players []model.Player) {
	for _, p := range players {
		if _, ok := d.players[p.ID]; ok {
			d.players[p.ID] = p
		}
	}
}

// Assign moves a selected, unassigned player into a team.
func (d *Draft) Assign(id string, side model.Side) error {
	if _, ok := d.players[id]; !ok {
		return ErrNotSelected
	}
	if _, assigned := d.SideOf(id); assigned {
		return ErrAlreadyAssigned
	}
	if side == model.SideA {
		d.teamA = append(d.teamA, id)
	} else {
		d.teamB = append(d.teamB, id)
	}
	return nil
}

// Unassign puts an assigned player back into the unassigned pool.
func (d *Draft) Unassign(id string) error {
	side, ok := d.SideOf(id)
	if !ok {
		return ErrNotAssigned
	}
	if side == model.SideA {
		d.teamA = remove(d.teamA, id)
	} else {
		d.teamB = remove(d.teamB, id)
	}
	return nil
}

// SideOf reports which team id is on, if any.
func (d *Draft) SideOf(id string) (model.Side, bool) {
	for _, pid := range d.teamA {
		if pid == id {
			return model.SideA, true
		}
	}
	for _, pid := range d.teamB {
		if pid == id {
			return model.SideB, true
		}
	}
	return "", false
}

// Selected returns the selection in selection order.
func (d *Draft) Selected() []model.Player { return d.resolve(d.order) }

// Team returns the roster of one side in assignment order.
func (d *Draft) Team(side model.Side) []model.Player {
	if side == model.SideA {
		return d.resolve(d.teamA)
	}
	return d.resolve(d.teamB)
}

// Unassigned returns selected players that are on neither team.
func (d *Draft) Unassigned() []model.Player {
	out := make([]model.Player, 0, len(d.order))
	for _, id := range d.order {
		if _, ok := d.SideOf(id); !ok {
			out = append(out, d.players[id])
		}
	}
	return out
}

// Ready reports whether both teams have at least one player.
func (d *Draft) Ready() bool { return len(d.teamA) > 0 && len(d.teamB) > 0 }

// Reset clears selection and teams.
func (d *Draft) Reset() {
	d.order = nil
	d.players = map[string]model.Player{}
	d.teamA = nil
	d.teamB = nil
}

func (d *Draft) keepSelected(team []string) []string {
	out := team[:0]
	for _, id := range team {
		if _, ok := d.players[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (d *Draft) resolve(list []string) []model.Player {
	out := make([]model.Player, 0, len(list))
	for _, id := range list {
		out = append(out, d.players[id])
	}
	return out
}

func ids(ps []model.Player) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func remove(list []string, id string) []string {
	for i, v := range list {
		if v == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
