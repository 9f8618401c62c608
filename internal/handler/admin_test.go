package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classroom-assistant/classroom-go/internal/model"
)

type fakeStats struct {
	stats *model.Stats
	err   error
}

func (f *fakeStats) Get(ctx context.Context) (*model.Stats, error) {
	return f.stats, f.err
}

func TestAdminHandler_ActiveStudents(t *testing.T) {
	auth := &fakeAuthService{
		activeStudentsFunc: func(ctx context.Context) ([]model.StudentPresence, error) {
			return []model.StudentPresence{
				{UserID: "GOOG1234", Name: "Ravi", PreferredLanguage: "bodo", LoggedInAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
				{UserID: "GOOG5678", Name: "Mina", PreferredLanguage: "mizo", LoggedInAt: time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)},
			}, nil
		},
	}
	h := NewAdminHandler(auth, &fakeStats{}, withClaims("t-1", model.RoleTeacher, "Ms. Devi"))

	req := httptest.NewRequest(http.MethodGet, "/active-students", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count    int                      `json:"count"`
		Students []map[string]interface{} `json:"students"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "Ravi", body.Students[0]["name"])
	assert.Contains(t, body.Students[0], "loginTime")
}

func TestAdminHandler_Stats(t *testing.T) {
	t.Run("returns counts", func(t *testing.T) {
		stats := &fakeStats{stats: &model.Stats{TotalTeachers: 3, TotalStudents: 120, ActiveStudents: 41, UniqueLogins: 97, ActiveClassrooms: 2}}
		h := NewAdminHandler(&fakeAuthService{}, stats, withClaims("t-1", model.RoleTeacher, "Ms. Devi"))

		req := httptest.NewRequest(http.MethodGet, "/stats", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"activeClassrooms":2`)
		assert.Contains(t, rec.Body.String(), `"uniqueLogins":97`)
	})

	t.Run("store failure", func(t *testing.T) {
		stats := &fakeStats{err: errors.New("connection refused")}
		h := NewAdminHandler(&fakeAuthService{}, stats, withClaims("t-1", model.RoleTeacher, "Ms. Devi"))

		req := httptest.NewRequest(http.MethodGet, "/stats", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})

	t.Run("students cannot read stats", func(t *testing.T) {
		h := NewAdminHandler(&fakeAuthService{}, &fakeStats{}, withClaims("GOOG1234", model.RoleStudent, "Ravi"))

		req := httptest.NewRequest(http.MethodGet, "/stats", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
