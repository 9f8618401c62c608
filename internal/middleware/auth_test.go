package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/httputil"
	"github.com/classroom-assistant/classroom-go/internal/model"
)

type fakeVerifier struct {
	tokens map[string]*model.Claims
}

func (f *fakeVerifier) Verify(token string) (*model.Claims, error) {
	if claims, ok := f.tokens[token]; ok {
		return claims, nil
	}
	if token == "expired" {
		return nil, apperrors.TokenExpired()
	}
	return nil, apperrors.InvalidToken("Invalid token")
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{tokens: map[string]*model.Claims{
		"teacher-token": {
			Role:             model.RoleTeacher,
			Name:             "Ms. Devi",
			RegisteredClaims: jwt.RegisteredClaims{Subject: "teacher-1"},
		},
		"student-token": {
			Role:             model.RoleStudent,
			Name:             "Ravi",
			RegisteredClaims: jwt.RegisteredClaims{Subject: "GOOG1234"},
		},
	}}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var body httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func TestAuthMiddleware(t *testing.T) {
	mw := NewAuthMiddleware(newFakeVerifier())

	var seen *model.Claims
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetClaims(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/teacher/profile", nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		body := decodeError(t, rr)
		assert.False(t, body.Success)
		assert.Equal(t, apperrors.ErrCodeUnauthorized, body.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/teacher/profile", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, apperrors.ErrCodeInvalidToken, decodeError(t, rr).Code)
	})

	t.Run("expired token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/teacher/profile", nil)
		req.Header.Set("Authorization", "Bearer expired")
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, apperrors.ErrCodeTokenExpired, decodeError(t, rr).Code)
	})

	t.Run("bearer header", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest("GET", "/api/teacher/profile", nil)
		req.Header.Set("Authorization", "Bearer teacher-token")
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "teacher-1", seen.UserID())
	})

	t.Run("query token for event streams", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest("GET", "/api/student/events/ABC234?token=student-token", nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, seen)
		assert.Equal(t, model.RoleStudent, seen.Role)
	})
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := NewAuthMiddleware(newFakeVerifier()).Handler(RequireRole(model.RoleTeacher)(ok))

	tests := []struct {
		name     string
		token    string
		expected int
	}{
		{"teacher allowed", "teacher-token", http.StatusOK},
		{"student forbidden", "student-token", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/teacher/start-class", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expected, rr.Code)
		})
	}

	t.Run("without claims", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/teacher/start-class", nil)
		rr := httptest.NewRecorder()

		RequireRole(model.RoleTeacher)(ok).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
