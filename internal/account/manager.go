// Package account handles client-side login, session restore and logout.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/classroom-assistant/classroom-go/internal/apiclient"
	"github.com/classroom-assistant/classroom-go/internal/config"
	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/localstore"
	"github.com/classroom-assistant/classroom-go/internal/model"
)

const (
	msgInvalidStudentLogin = "Invalid user ID or password"
	msgInvalidTeacherLogin = "Invalid email or password"
	msgRequestTimeout     = "Request timeout - backend is slow or unreachable"
)

type API interface {
	BaseURL() string
	SetToken(token string)
	StudentLogin(ctx context.Context, userID, password string) (*model.SessionRecord, error)
	TeacherLogin(ctx context.Context, email, password string) (*model.SessionRecord, error)
	Logout(ctx context.Context, userID string) error
}

type Manager struct {
	api   API
	store localstore.Store
}

func NewManager(api API, store localstore.Store) *Manager {
	return &Manager{api: api, store: store}
}

func (m *Manager) LoginStudent(ctx context.Context, userID, password string) (*model.SessionRecord, error) {
	userID = strings.TrimSpace(userID)
	password = strings.TrimSpace(password)
	if userID == "" || password == "" {
		return nil, apperrors.MissingRequired("user ID and password")
	}

	record, err := m.api.StudentLogin(ctx, userID, password)
	if err != nil {
		return nil, m.loginError(err, msgInvalidStudentLogin)
	}
	if record.Role == "" {
		record.Role = model.RoleStudent
	}

	if err := m.persist(config.StudentSessionKey, record); err != nil {
		return nil, err
	}
	log.Info().Str("userId", record.UserID).Msg("student logged in")
	return record, nil
}

func (m *Manager) LoginTeacher(ctx context.Context, email, password string) (*model.SessionRecord, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, apperrors.MissingRequired("email and password")
	}

	record, err := m.api.TeacherLogin(ctx, email, password)
	if err != nil {
		return nil, m.loginError(err, msgInvalidTeacherLogin)
	}
	if record.Role == "" {
		record.Role = model.RoleTeacher
	}

	if err := m.persist(config.TeacherSessionKey, record); err != nil {
		return nil, err
	}
	log.Info().Str("userId", record.UserID).Msg("teacher logged in")
	return record, nil
}

// Restore loads the persisted record for role without any network call.
// It returns nil when there is no usable session. A corrupted record is
// deleted together with the role marker; a corrupt store is cleared.
func (m *Manager) Restore(role model.Role) (*model.SessionRecord, error) {
	key := sessionKey(role)

	raw, ok, err := m.store.Get(key)
	if errors.Is(err, localstore.ErrCorrupt) {
		log.Warn().Err(err).Msg("discarding corrupted session store")
		if err := m.store.Clear(); err != nil {
			return nil, fmt.Errorf("reset session store: %w", err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var record model.SessionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("discarding corrupted session record")
		for _, k := range []string{key, config.UserRoleKey} {
			if err := m.store.Delete(k); err != nil {
				return nil, fmt.Errorf("delete %s: %w", k, err)
			}
		}
		return nil, nil
	}
	if record.Role == "" {
		record.Role = role
	}

	m.api.SetToken(record.Token)
	return &record, nil
}

// Logout tells the backend on a best-effort basis, then clears local state
// whatever the outcome.
func (m *Manager) Logout(ctx context.Context) error {
	for _, role := range []model.Role{model.RoleStudent, model.RoleTeacher} {
		record, err := m.Restore(role)
		if err != nil || record == nil {
			continue
		}
		if err := m.api.Logout(ctx, record.UserID); err != nil {
			log.Debug().Err(err).Str("userId", record.UserID).Msg("logout request failed")
		}
	}

	m.api.SetToken("")

	var firstErr error
	for _, key := range []string{config.StudentSessionKey, config.TeacherSessionKey, config.UserRoleKey} {
		if err := m.store.Delete(key); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return firstErr
}

func (m *Manager) persist(key string, record *model.SessionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := m.store.Set(key, string(data)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := m.store.Set(config.UserRoleKey, string(record.Role)); err != nil {
		return fmt.Errorf("save role: %w", err)
	}
	m.api.SetToken(record.Token)
	return nil
}

func (m *Manager) loginError(err error, invalidMsg string) error {
	switch status := apiclient.StatusOf(err); {
	case status == http.StatusUnauthorized:
		return apperrors.Wrap(apperrors.ErrCodeInvalidCredentials, invalidMsg, err)
	case status == http.StatusNotFound:
		return apperrors.Wrap(apperrors.ErrCodeNotFound,
			"Backend server not found. Check API URL: "+m.api.BaseURL(), err)
	case status != 0:
		// Validation or rate-limit messages from the server are already
		// user-facing.
		return err
	case apiclient.IsTimeout(err):
		return apperrors.Wrap(apperrors.ErrCodeExternal, msgRequestTimeout, err)
	default:
		return apperrors.Wrap(apperrors.ErrCodeExternal, "Backend not reachable. Error: "+err.Error(), err)
	}
}

func sessionKey(role model.Role) string {
	if role == model.RoleTeacher {
		return config.TeacherSessionKey
	}
	return config.StudentSessionKey
}
