package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/service"
	"github.com/classroom-assistant/classroom-go/internal/sse"
)

type Subscriber interface {
	Subscribe(joinCode string) *sse.Client
	Unsubscribe(client *sse.Client)
}

// EventsHandler streams broadcast and class_ended events for one join code.
type EventsHandler struct {
	broker     Subscriber
	classrooms ClassroomService
	heartbeat  time.Duration
}

func NewEventsHandler(broker Subscriber, classrooms ClassroomService, heartbeat time.Duration) *EventsHandler {
	return &EventsHandler{
		broker:     broker,
		classrooms: classrooms,
		heartbeat:  heartbeat,
	}
}

// GET /api/student/events/{joinCode}
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	classroom, err := h.classrooms.Lookup(ctx, chi.URLParam(r, "joinCode"))
	if err != nil {
		writeError(w, err)
		return
	}
	joinCode := classroom.JoinCode

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, apperrors.Internal("Streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := h.broker.Subscribe(joinCode)
	defer h.broker.Unsubscribe(client)

	log.Info().Str("joinCode", joinCode).Msg("sse connection established")

	if err := h.sendEvent(w, flusher, "connected", map[string]any{
		"joinCode":    joinCode,
		"teacherName": classroom.TeacherName,
		"subject":     classroom.Subject,
	}); err != nil {
		return
	}

	h.sendLatest(ctx, w, flusher, joinCode)

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("joinCode", joinCode).Msg("sse connection closed by client")
			return

		case <-client.Done:
			log.Info().Str("joinCode", joinCode).Msg("sse connection closed by broker")
			return

		case event := <-client.Events:
			if err := h.sendRawEvent(w, flusher, event); err != nil {
				log.Error().Err(err).Msg("failed to send event")
				return
			}
			if event.Type == service.EventClassEnded {
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				log.Debug().Str("joinCode", joinCode).Msg("heartbeat failed, closing connection")
				return
			}
			flusher.Flush()
		}
	}
}

// sendLatest replays the current broadcast so a late subscriber does not wait for the next utterance.
func (h *EventsHandler) sendLatest(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, joinCode string) {
	content, err := h.classrooms.GetBroadcast(ctx, joinCode)
	if err != nil {
		if !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
			log.Warn().Err(err).Str("joinCode", joinCode).Msg("failed to load latest broadcast")
		}
		return
	}

	if err := h.sendEvent(w, flusher, service.EventBroadcast, content); err != nil {
		log.Debug().Err(err).Str("joinCode", joinCode).Msg("failed to replay latest broadcast")
	}
}

func (h *EventsHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return h.sendRawEvent(w, flusher, sse.Event{Type: eventType, Data: jsonData})
}

func (h *EventsHandler) sendRawEvent(w http.ResponseWriter, flusher http.Flusher, event sse.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", event.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
