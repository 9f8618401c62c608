// Package guard decides whether a role-scoped view may render from the
// locally persisted session alone.
package guard

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/classroom-assistant/classroom-go/internal/config"
	"github.com/classroom-assistant/classroom-go/internal/localstore"
	"github.com/classroom-assistant/classroom-go/internal/model"
)

type Action int

const (
	Render Action = iota
	Redirect
)

const (
	LoginPath            = "/login"
	StudentEntryPath     = "/student"
	TeacherDashboardPath = "/teacher-dashboard"
)

type Outcome struct {
	Action Action
	Target string
}

func (o Outcome) String() string {
	if o.Action == Render {
		return "render"
	}
	return "redirect " + o.Target
}

var errCorrupted = errors.New("corrupted session record")

// Evaluate never touches the network. A record that does not parse is
// deleted together with the role marker.
func Evaluate(store localstore.Store, required model.Role) Outcome {
	role, err := currentRole(store)
	if errors.Is(err, errCorrupted) {
		if required == model.RoleStudent {
			return redirect(StudentEntryPath)
		}
		return redirect(LoginPath)
	}

	if role == "" {
		if required == model.RoleStudent {
			// The student view renders its own login form.
			return Outcome{Action: Render}
		}
		return redirect(LoginPath)
	}

	if role == required {
		return Outcome{Action: Render}
	}

	switch role {
	case model.RoleTeacher:
		return redirect(TeacherDashboardPath)
	case model.RoleStudent:
		return redirect(StudentEntryPath)
	default:
		return redirect(LoginPath)
	}
}

func redirect(target string) Outcome {
	return Outcome{Action: Redirect, Target: target}
}

// currentRole prefers the teacher record when both are present. An empty role
// means no session.
func currentRole(store localstore.Store) (model.Role, error) {
	for _, slot := range []struct {
		key  string
		role model.Role
	}{
		{config.TeacherSessionKey, model.RoleTeacher},
		{config.StudentSessionKey, model.RoleStudent},
	} {
		raw, ok, err := store.Get(slot.key)
		if errors.Is(err, localstore.ErrCorrupt) {
			log.Warn().Err(err).Msg("discarding corrupted session store")
			if err := store.Clear(); err != nil {
				log.Warn().Err(err).Msg("failed to reset session store")
			}
			return "", errCorrupted
		}
		if err != nil {
			log.Warn().Err(err).Str("key", slot.key).Msg("session store unreadable")
			continue
		}
		if !ok || raw == "" {
			continue
		}

		var record model.SessionRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			log.Warn().Err(err).Str("key", slot.key).Msg("discarding corrupted session record")
			discard(store, slot.key)
			return "", errCorrupted
		}

		if record.Role == "" {
			return slot.role, nil
		}
		return record.Role, nil
	}
	return "", nil
}

func discard(store localstore.Store, key string) {
	for _, k := range []string{key, config.UserRoleKey} {
		if err := store.Delete(k); err != nil {
			log.Warn().Err(err).Str("key", k).Msg("failed to delete session key")
		}
	}
}
