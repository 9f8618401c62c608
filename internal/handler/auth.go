package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/classroom-assistant/classroom-go/internal/audit"
	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/middleware"
	"github.com/classroom-assistant/classroom-go/internal/model"
	"github.com/classroom-assistant/classroom-go/internal/service"
)

type AuthService interface {
	RegisterTeacher(ctx context.Context, email, password, name string) (*model.Teacher, error)
	LoginTeacher(ctx context.Context, email, password string) (*service.LoginResult, error)
	LoginTeacherGoogle(ctx context.Context, idToken string) (*service.LoginResult, error)
	LoginStudent(ctx context.Context, userID, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, userID string) error
	TeacherProfile(ctx context.Context, teacherID string) (*model.Teacher, error)
	ActiveStudents(ctx context.Context) ([]model.StudentPresence, error)
}

// AuthHandler serves teacher registration, teacher login and token verification.
type AuthHandler struct {
	auth           AuthService
	authMiddleware func(http.Handler) http.Handler
	loginLimiter   func(http.Handler) http.Handler
}

func NewAuthHandler(
	auth AuthService,
	authMiddleware func(http.Handler) http.Handler,
	loginLimiter func(http.Handler) http.Handler,
) *AuthHandler {
	return &AuthHandler{
		auth:           auth,
		authMiddleware: authMiddleware,
		loginLimiter:   loginLimiter,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.With(h.loginLimiter).Post("/login", h.Login)
	r.With(h.loginLimiter).Post("/google/callback", h.GoogleCallback)
	r.With(h.authMiddleware).Post("/verify-token", h.VerifyToken)

	return r
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"notblank"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	teacher, err := h.auth.RegisterTeacher(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventTeacherRegister,
		UserID: teacher.ID,
		Role:   string(model.RoleTeacher),
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"teacher": teacher,
	})
}

type teacherLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req teacherLoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.LoginTeacher(r.Context(), req.Email, req.Password)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeInvalidCredentials) {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventLoginFailure,
				Role:    string(model.RoleTeacher),
				Details: map[string]interface{}{"email": req.Email},
			})
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventLoginSuccess,
		UserID: result.Record.UserID,
		Role:   string(model.RoleTeacher),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   result.Record.Token,
		"role":    result.Record.Role,
		"teacher": result.Teacher,
	})
}

type googleLoginRequest struct {
	Credential string `json:"credential" validate:"required_without=IDToken"`
	IDToken    string `json:"id_token"`
}

// POST /api/auth/google/callback
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	credential := req.Credential
	if credential == "" {
		credential = req.IDToken
	}

	result, err := h.auth.LoginTeacherGoogle(r.Context(), credential)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeInvalidCredentials) {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventLoginFailure,
				Role:    string(model.RoleTeacher),
				Details: map[string]interface{}{"method": model.AuthMethodGoogle},
			})
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventLoginSuccess,
		UserID:  result.Record.UserID,
		Role:    string(model.RoleTeacher),
		Details: map[string]interface{}{"method": model.AuthMethodGoogle},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   result.Record.Token,
		"role":    result.Record.Role,
		"teacher": result.Teacher,
	})
}

// POST /api/auth/verify-token
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		writeError(w, apperrors.Unauthorized("Missing authentication token"))
		return
	}

	resp := map[string]any{
		"valid":  true,
		"userId": claims.UserID(),
		"name":   claims.Name,
		"role":   claims.Role,
	}

	if claims.Role == model.RoleTeacher {
		teacher, err := h.auth.TeacherProfile(r.Context(), claims.UserID())
		if err != nil {
			log.Warn().Err(err).Str("teacherId", claims.UserID()).Msg("token valid but teacher lookup failed")
			writeError(w, err)
			return
		}
		resp["teacher"] = teacher
	}

	writeJSON(w, http.StatusOK, resp)
}
