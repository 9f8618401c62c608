package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/middleware"
	"github.com/classroom-assistant/classroom-go/internal/model"
)

type StatsProvider interface {
	Get(ctx context.Context) (*model.Stats, error)
}

// AdminHandler exposes the teacher-only roster and usage endpoints.
type AdminHandler struct {
	auth           AuthService
	stats          StatsProvider
	authMiddleware func(http.Handler) http.Handler
}

func NewAdminHandler(auth AuthService, stats StatsProvider, authMiddleware func(http.Handler) http.Handler) *AdminHandler {
	return &AdminHandler{
		auth:           auth,
		stats:          stats,
		authMiddleware: authMiddleware,
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware)
		r.Use(middleware.RequireRole(model.RoleTeacher))
		r.Get("/active-students", h.ActiveStudents)
		r.Get("/stats", h.Stats)
	})

	return r
}

// GET /api/active-students
func (h *AdminHandler) ActiveStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.auth.ActiveStudents(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list active students")
		writeError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(students),
		"students": students,
	})
}

// GET /api/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Get(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to get stats")
		writeError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
