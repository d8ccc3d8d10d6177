package service

import (
	"strings"

	"github.com/maxviazov/pelada-service/internal/model"
)

const (
	maxNameRunes = 50
	minSkill     = 1
	maxSkill     = 10
	maxWeightKg  = 300
	maxHeightCm  = 260
)

func requireTrusted(c model.Caller) error {
	if c.UserID == "" {
		return ErrForbidden
	}
	if !c.IsTrusted {
		return ErrPendingApproval
	}
	return nil
}

func requireAdmin(c model.Caller) error {
	if !c.IsAdmin {
		return ErrForbidden
	}
	return nil
}

func validateName(name string, ferrs []FieldError) []FieldError {
	if name == "" {
		return append(ferrs, FieldError{Field: "name", Message: "must not be empty"})
	}
	if len([]rune(name)) > maxNameRunes {
		return append(ferrs, FieldError{Field: "name", Message: "length must be at most 50"})
	}
	return ferrs
}

func validateSkill(skill int, ferrs []FieldError) []FieldError {
	if skill < minSkill || skill > maxSkill {
		return append(ferrs, FieldError{Field: "skill_level", Message: "must be between 1 and 10"})
	}
	return ferrs
}

func validateMeasure(field string, v *float64, maxV float64, ferrs []FieldError) []FieldError {
	if v != nil && (*v <= 0 || *v > maxV) {
		return append(ferrs, FieldError{Field: field, Message: "out of range"})
	}
	return ferrs
}

func parseFoot(s string) (model.Foot, bool) {
	switch f := model.Foot(strings.ToLower(strings.TrimSpace(s))); f {
	case model.FootLeft, model.FootRight, model.FootBoth:
		return f, true
	}
	return "", false
}

// resolvePosition reconciles a position string with the goalkeeper flag. The flag only
// promotes to Goalkeeper when no position was given.
func resolvePosition(raw string, goalkeeper bool, ferrs []FieldError) (model.Position, []FieldError) {
	if strings.TrimSpace(raw) == "" {
		if goalkeeper {
			return model.PositionGoalkeeper, ferrs
		}
		return model.DefaultPosition, ferrs
	}
	pos, ok := model.ParsePosition(raw)
	if !ok {
		return "", append(ferrs, FieldError{Field: "position", Message: "must be one of Goalkeeper, Defender, Midfielder, Forward"})
	}
	if goalkeeper && pos != model.PositionGoalkeeper {
		return "", append(ferrs, FieldError{Field: "is_goalkeeper", Message: "conflicts with position"})
	}
	return pos, ferrs
}

func clampCounter(v *int) *int {
	if v != nil && *v < 0 {
		zero := 0
		return &zero
	}
	return v
}
