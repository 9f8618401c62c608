package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classroom-assistant/classroom-go/internal/model"
)

type Translator interface {
	Translate(text string, source, target model.Language) string
	TranslateBatch(texts []string) []model.BatchTranslation
}

type TranslateHandler struct {
	translator  Translator
	rateLimiter func(http.Handler) http.Handler
}

func NewTranslateHandler(translator Translator, rateLimiter func(http.Handler) http.Handler) *TranslateHandler {
	return &TranslateHandler{
		translator:  translator,
		rateLimiter: rateLimiter,
	}
}

func (h *TranslateHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(h.rateLimiter)
	r.Post("/", h.Translate)
	r.Post("/batch", h.TranslateBatch)

	return r
}

type translateRequest struct {
	Text       string `json:"text" validate:"notblank,max=2000"`
	SourceLang string `json:"source_lang" validate:"language"`
	TargetLang string `json:"target_lang" validate:"language"`
}

// POST /api/translate
func (h *TranslateHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	source, _ := model.ParseLanguage(req.SourceLang)
	target, _ := model.ParseLanguage(req.TargetLang)

	translation := h.translator.Translate(req.Text, source, target)
	writeJSON(w, http.StatusOK, map[string]any{
		"translation": translation,
		"found":       translation != "",
	})
}

type batchRequest struct {
	Texts []string `json:"texts" validate:"required,min=1,max=100,dive,max=2000"`
}

// POST /api/translate/batch
func (h *TranslateHandler) TranslateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"translations": h.translator.TranslateBatch(req.Texts),
	})
}
