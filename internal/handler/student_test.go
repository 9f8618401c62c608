package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/model"
	"github.com/classroom-assistant/classroom-go/internal/service"
)

func TestStudentHandler_Login(t *testing.T) {
	auth := &fakeAuthService{
		loginStudentFunc: func(ctx context.Context, userID, password string) (*service.LoginResult, error) {
			if userID != "GOOG1234" || password != "pw" {
				return nil, apperrors.New(apperrors.ErrCodeInvalidCredentials, "Invalid user ID or password")
			}
			return &service.LoginResult{Record: model.SessionRecord{
				UserID:            "GOOG1234",
				Name:              "Ravi",
				Role:              model.RoleStudent,
				Token:             "jwt-token",
				PreferredLanguage: "bodo",
			}}, nil
		},
	}
	h := NewStudentHandler(auth, &fakeClassroomService{}, passthrough, passthrough)

	t.Run("success returns session record fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"userId":"GOOG1234","password":"pw"}`))
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "GOOG1234", body["userId"])
		assert.Equal(t, "Ravi", body["name"])
		assert.Equal(t, "student", body["role"])
		assert.Equal(t, "jwt-token", body["token"])
		assert.Equal(t, "bodo", body["preferredLanguage"])
	})

	t.Run("wrong password is 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"userId":"GOOG1234","password":"nope"}`))
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid user ID or password")
	})

	t.Run("empty fields never reach the service", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"userId":"","password":""}`))
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStudentHandler_Logout(t *testing.T) {
	auth := &fakeAuthService{
		logoutFunc: func(ctx context.Context, userID string) error {
			if userID == "GOOG1234" {
				return nil
			}
			return apperrors.NotFound("Active session")
		},
	}
	h := NewStudentHandler(auth, &fakeClassroomService{}, passthrough, passthrough)

	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{"active student", `{"userId":" GOOG1234 "}`, http.StatusOK},
		{"unknown student", `{"userId":"NOPE"}`, http.StatusNotFound},
		{"missing user id", `{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/logout", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Logout(rec, req)

			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestStudentHandler_Join(t *testing.T) {
	classrooms := &fakeClassroomService{
		joinFunc: func(ctx context.Context, studentID, joinCode string) (*service.JoinResult, error) {
			if joinCode != "ABC234" {
				return nil, apperrors.InvalidJoinCode()
			}
			return &service.JoinResult{
				Classroom:     &model.Classroom{JoinCode: "ABC234", TeacherName: "Ms. Devi", Subject: "Science"},
				AlreadyJoined: studentID == "REJOIN01",
			}, nil
		},
	}

	t.Run("joins with teacher name and subject", func(t *testing.T) {
		h := NewStudentHandler(&fakeAuthService{}, classrooms, withClaims("GOOG1234", model.RoleStudent, "Ravi"), passthrough)

		req := httptest.NewRequest(http.MethodPost, "/join", strings.NewReader(`{"studentId":"GOOG1234","joinCode":"ABC234"}`))
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Ms. Devi", body["teacherName"])
		assert.Equal(t, "Science", body["subject"])
		assert.NotContains(t, body, "message")
	})

	t.Run("rejoin carries a message", func(t *testing.T) {
		h := NewStudentHandler(&fakeAuthService{}, classrooms, withClaims("REJOIN01", model.RoleStudent, "Mina"), passthrough)

		req := httptest.NewRequest(http.MethodPost, "/join", strings.NewReader(`{"joinCode":"ABC234"}`))
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Already joined")
	})

	t.Run("invalid code", func(t *testing.T) {
		h := NewStudentHandler(&fakeAuthService{}, classrooms, withClaims("GOOG1234", model.RoleStudent, "Ravi"), passthrough)

		req := httptest.NewRequest(http.MethodPost, "/join", strings.NewReader(`{"joinCode":"ZZZ999"}`))
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid or expired join code")
	})

	t.Run("cannot join for someone else", func(t *testing.T) {
		h := NewStudentHandler(&fakeAuthService{}, classrooms, withClaims("GOOG1234", model.RoleStudent, "Ravi"), passthrough)

		req := httptest.NewRequest(http.MethodPost, "/join", strings.NewReader(`{"studentId":"OTHER","joinCode":"ABC234"}`))
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("teacher token is rejected", func(t *testing.T) {
		h := NewStudentHandler(&fakeAuthService{}, classrooms, withClaims("t-1", model.RoleTeacher, "Ms. Devi"), passthrough)

		req := httptest.NewRequest(http.MethodPost, "/join", strings.NewReader(`{"joinCode":"ABC234"}`))
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestStudentHandler_GetBroadcast(t *testing.T) {
	classrooms := &fakeClassroomService{
		getFunc: func(ctx context.Context, joinCode string) (*model.BroadcastContent, error) {
			if joinCode == "ABC234" {
				return &model.BroadcastContent{
					EnglishText:     "Open your notebooks",
					BodoTranslation: "नायनि फोरमाखौ खेव",
					Timestamp:       "2026-03-01T09:00:00Z",
				}, nil
			}
			return nil, apperrors.NotFound("Classroom")
		},
	}
	h := NewStudentHandler(&fakeAuthService{}, classrooms, passthrough, passthrough)

	t.Run("returns latest content", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/get-broadcast/ABC234", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Success bool                    `json:"success"`
			Content model.BroadcastContent `json:"content"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.True(t, body.Success)
		assert.Equal(t, "Open your notebooks", body.Content.EnglishText)
		assert.Equal(t, "2026-03-01T09:00:00Z", body.Content.Timestamp)
	})

	t.Run("ended class is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/get-broadcast/GONE99", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), `"success":false`)
	})
}
