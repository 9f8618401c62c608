package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/classroom-assistant/classroom-go/internal/audit"
	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/middleware"
	"github.com/classroom-assistant/classroom-go/internal/model"
	"github.com/classroom-assistant/classroom-go/internal/service"
)

type ClassroomService interface {
	StartClass(ctx context.Context, teacherID, teacherName, subject string) (*model.Classroom, error)
	StopClass(ctx context.Context, teacherID, joinCode string) error
	Join(ctx context.Context, studentID, joinCode string) (*service.JoinResult, error)
	Broadcast(ctx context.Context, teacherID string, params service.BroadcastParams) (*model.BroadcastContent, error)
	GetBroadcast(ctx context.Context, joinCode string) (*model.BroadcastContent, error)
	Lookup(ctx context.Context, joinCode string) (*model.Classroom, error)
	ListTeacherClasses(ctx context.Context, teacherID string) ([]model.Classroom, error)
}

type StudentHandler struct {
	auth           AuthService
	classrooms     ClassroomService
	authMiddleware func(http.Handler) http.Handler
	loginLimiter   func(http.Handler) http.Handler
}

func NewStudentHandler(
	auth AuthService,
	classrooms ClassroomService,
	authMiddleware func(http.Handler) http.Handler,
	loginLimiter func(http.Handler) http.Handler,
) *StudentHandler {
	return &StudentHandler{
		auth:           auth,
		classrooms:     classrooms,
		authMiddleware: authMiddleware,
		loginLimiter:   loginLimiter,
	}
}

func (h *StudentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.loginLimiter).Post("/login", h.Login)
	r.Get("/get-broadcast/{joinCode}", h.GetBroadcast)

	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware)
		r.Use(middleware.RequireRole(model.RoleStudent))
		r.Post("/join", h.Join)
	})

	return r
}

type studentLoginRequest struct {
	UserID   string `json:"userId" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

// POST /api/student/login
func (h *StudentHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req studentLoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.LoginStudent(r.Context(), req.UserID, req.Password)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeInvalidCredentials) {
			audit.LogFromRequest(r, audit.Event{
				Type:   audit.EventLoginFailure,
				UserID: strings.TrimSpace(req.UserID),
				Role:   string(model.RoleStudent),
			})
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventLoginSuccess,
		UserID: result.Record.UserID,
		Role:   string(model.RoleStudent),
	})

	rec := result.Record
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"userId":            rec.UserID,
		"name":              rec.Name,
		"role":              rec.Role,
		"token":             rec.Token,
		"preferredLanguage": rec.PreferredLanguage,
	})
}

type logoutRequest struct {
	UserID string `json:"userId" validate:"notblank"`
}

// POST /api/logout
func (h *StudentHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if err := h.auth.Logout(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout, UserID: userID})

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}

type joinRequest struct {
	StudentID string `json:"studentId"`
	JoinCode  string `json:"joinCode" validate:"notblank"`
}

// POST /api/student/join
func (h *StudentHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	claims := middleware.GetClaims(r.Context())
	studentID := claims.UserID()
	if req.StudentID != "" && strings.TrimSpace(req.StudentID) != studentID {
		writeError(w, apperrors.Forbidden("Cannot join on behalf of another student"))
		return
	}

	result, err := h.classrooms.Join(r.Context(), studentID, req.JoinCode)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventClassJoin,
		UserID:   studentID,
		Role:     string(model.RoleStudent),
		JoinCode: result.Classroom.JoinCode,
	})

	resp := map[string]any{
		"success":     true,
		"teacherName": result.Classroom.TeacherName,
		"subject":     result.Classroom.Subject,
	}
	if result.AlreadyJoined {
		resp["message"] = "Already joined this class"
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/student/get-broadcast/{joinCode}
func (h *StudentHandler) GetBroadcast(w http.ResponseWriter, r *http.Request) {
	content, err := h.classrooms.GetBroadcast(r.Context(), chi.URLParam(r, "joinCode"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"content": content,
	})
}
