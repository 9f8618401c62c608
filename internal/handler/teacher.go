package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classroom-assistant/classroom-go/internal/audit"
	"github.com/classroom-assistant/classroom-go/internal/middleware"
	"github.com/classroom-assistant/classroom-go/internal/model"
	"github.com/classroom-assistant/classroom-go/internal/service"
)

// TeacherHandler serves everything under /api/teacher. Every route requires a teacher token.
type TeacherHandler struct {
	auth           AuthService
	classrooms     ClassroomService
	authMiddleware func(http.Handler) http.Handler
	rateLimiter    func(http.Handler) http.Handler
}

func NewTeacherHandler(
	auth AuthService,
	classrooms ClassroomService,
	authMiddleware func(http.Handler) http.Handler,
	rateLimiter func(http.Handler) http.Handler,
) *TeacherHandler {
	return &TeacherHandler{
		auth:           auth,
		classrooms:     classrooms,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
	}
}

func (h *TeacherHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(h.authMiddleware)
	r.Use(middleware.RequireRole(model.RoleTeacher))
	r.Use(h.rateLimiter)

	r.Get("/profile", h.Profile)
	r.Get("/classes", h.ListClasses)
	r.Post("/start-class", h.StartClass)
	r.Post("/stop-class", h.StopClass)
	r.Post("/broadcast-speech", h.BroadcastSpeech)

	return r
}

// GET /api/teacher/profile
func (h *TeacherHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())

	teacher, err := h.auth.TeacherProfile(r.Context(), claims.UserID())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, teacher)
}

// GET /api/teacher/classes
func (h *TeacherHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())

	classes, err := h.classrooms.ListTeacherClasses(r.Context(), claims.UserID())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"classes": classes,
	})
}

type startClassRequest struct {
	Subject string `json:"subject" validate:"max=100"`
}

// POST /api/teacher/start-class
func (h *TeacherHandler) StartClass(w http.ResponseWriter, r *http.Request) {
	var req startClassRequest
	if r.ContentLength != 0 {
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	claims := middleware.GetClaims(r.Context())
	classroom, err := h.classrooms.StartClass(r.Context(), claims.UserID(), claims.Name, req.Subject)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventClassStart,
		UserID:   claims.UserID(),
		Role:     string(model.RoleTeacher),
		JoinCode: classroom.JoinCode,
		Details:  map[string]interface{}{"subject": classroom.Subject},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"joinCode": classroom.JoinCode,
		"subject":  classroom.Subject,
	})
}

type stopClassRequest struct {
	JoinCode string `json:"joinCode" validate:"notblank"`
}

// POST /api/teacher/stop-class
func (h *TeacherHandler) StopClass(w http.ResponseWriter, r *http.Request) {
	var req stopClassRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	claims := middleware.GetClaims(r.Context())
	if err := h.classrooms.StopClass(r.Context(), claims.UserID(), req.JoinCode); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventClassStop,
		UserID:   claims.UserID(),
		Role:     string(model.RoleTeacher),
		JoinCode: req.JoinCode,
	})

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type broadcastRequest struct {
	JoinCode        string `json:"joinCode" validate:"notblank"`
	EnglishText     string `json:"englishText" validate:"notblank,max=2000"`
	BodoTranslation string `json:"bodoTranslation" validate:"max=4000"`
	MizoTranslation string `json:"mizoTranslation" validate:"max=4000"`
}

// POST /api/teacher/broadcast-speech
func (h *TeacherHandler) BroadcastSpeech(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	claims := middleware.GetClaims(r.Context())
	content, err := h.classrooms.Broadcast(r.Context(), claims.UserID(), service.BroadcastParams{
		JoinCode:        req.JoinCode,
		EnglishText:     req.EnglishText,
		BodoTranslation: req.BodoTranslation,
		MizoTranslation: req.MizoTranslation,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"content": content,
	})
}
