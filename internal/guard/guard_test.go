package guard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classroom-assistant/classroom-go/internal/config"
	"github.com/classroom-assistant/classroom-go/internal/localstore"
	"github.com/classroom-assistant/classroom-go/internal/model"
)

func storeWith(t *testing.T, key string, record *model.SessionRecord) *localstore.MemoryStore {
	t.Helper()
	s := localstore.NewMemoryStore()
	if record != nil {
		data, err := json.Marshal(record)
		require.NoError(t, err)
		require.NoError(t, s.Set(key, string(data)))
		require.NoError(t, s.Set(config.UserRoleKey, string(record.Role)))
	}
	return s
}

func TestEvaluate_PolicyTable(t *testing.T) {
	teacher := &model.SessionRecord{UserID: "t-1", Name: "Ms. Daimary", Role: model.RoleTeacher, Token: "tok"}
	student := &model.SessionRecord{UserID: "GOOG1234", Name: "Riya", Role: model.RoleStudent, Token: "tok"}

	tests := []struct {
		name     string
		key      string
		record   *model.SessionRecord
		required model.Role
		want     Outcome
	}{
		{"no session student view", "", nil, model.RoleStudent, Outcome{Action: Render}},
		{"no session teacher view", "", nil, model.RoleTeacher, Outcome{Action: Redirect, Target: LoginPath}},
		{"teacher on teacher view", config.TeacherSessionKey, teacher, model.RoleTeacher, Outcome{Action: Render}},
		{"student on student view", config.StudentSessionKey, student, model.RoleStudent, Outcome{Action: Render}},
		{"teacher on student view", config.TeacherSessionKey, teacher, model.RoleStudent, Outcome{Action: Redirect, Target: TeacherDashboardPath}},
		{"student on teacher view", config.StudentSessionKey, student, model.RoleTeacher, Outcome{Action: Redirect, Target: StudentEntryPath}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := storeWith(t, tc.key, tc.record)
			assert.Equal(t, tc.want, Evaluate(s, tc.required))
		})
	}
}

func TestEvaluate_RoleDefaultsFromKey(t *testing.T) {
	s := localstore.NewMemoryStore()
	require.NoError(t, s.Set(config.StudentSessionKey, `{"userId":"GOOG1234","token":"tok"}`))

	assert.Equal(t, Outcome{Action: Render}, Evaluate(s, model.RoleStudent))
	assert.Equal(t, Outcome{Action: Redirect, Target: StudentEntryPath}, Evaluate(s, model.RoleTeacher))
}

func TestEvaluate_UnknownRole(t *testing.T) {
	s := localstore.NewMemoryStore()
	require.NoError(t, s.Set(config.TeacherSessionKey, `{"userId":"x","role":"admin"}`))

	assert.Equal(t, Outcome{Action: Redirect, Target: LoginPath}, Evaluate(s, model.RoleTeacher))
	assert.Equal(t, Outcome{Action: Redirect, Target: LoginPath}, Evaluate(s, model.RoleStudent))
}

func TestEvaluate_CorruptedRecord(t *testing.T) {
	t.Run("teacher record", func(t *testing.T) {
		s := localstore.NewMemoryStore()
		require.NoError(t, s.Set(config.TeacherSessionKey, "{broken"))
		require.NoError(t, s.Set(config.UserRoleKey, "teacher"))

		assert.Equal(t, Outcome{Action: Redirect, Target: LoginPath}, Evaluate(s, model.RoleTeacher))

		_, ok, _ := s.Get(config.TeacherSessionKey)
		assert.False(t, ok)
		_, ok, _ = s.Get(config.UserRoleKey)
		assert.False(t, ok)

		// Nothing left, so the student view renders its login form.
		assert.Equal(t, Outcome{Action: Render}, Evaluate(s, model.RoleStudent))
	})

	t.Run("student record", func(t *testing.T) {
		s := localstore.NewMemoryStore()
		require.NoError(t, s.Set(config.StudentSessionKey, "not json"))

		assert.Equal(t, Outcome{Action: Redirect, Target: StudentEntryPath}, Evaluate(s, model.RoleStudent))

		_, ok, _ := s.Get(config.StudentSessionKey)
		assert.False(t, ok)
	})
}

func TestEvaluate_CorruptedSessionFile(t *testing.T) {
	tests := []struct {
		required model.Role
		want     Outcome
	}{
		{model.RoleStudent, Outcome{Action: Redirect, Target: StudentEntryPath}},
		{model.RoleTeacher, Outcome{Action: Redirect, Target: LoginPath}},
	}

	for _, tc := range tests {
		t.Run(string(tc.required), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.json")
			require.NoError(t, os.WriteFile(path, []byte(`{"studentSession": "{\"userId\":\"S1\",`), 0o600))
			store := localstore.NewFileStore(path)

			assert.Equal(t, tc.want, Evaluate(store, tc.required))

			_, err := os.Stat(path)
			assert.ErrorIs(t, err, os.ErrNotExist)

			// The store is usable again for the next login.
			require.NoError(t, store.Set(config.StudentSessionKey, `{"userId":"GOOG1234","role":"student"}`))
			assert.Equal(t, Outcome{Action: Render}, Evaluate(store, model.RoleStudent))
		})
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "render", Outcome{Action: Render}.String())
	assert.Equal(t, "redirect /login", Outcome{Action: Redirect, Target: LoginPath}.String())
}
