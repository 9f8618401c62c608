package live

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/classroom-assistant/classroom-go/internal/model"
)

// Speaker voices one utterance at a time. Speak blocks until the utterance
// finishes, fails or ctx is cancelled.
type Speaker interface {
	Speak(ctx context.Context, text string, lang model.Language) error
	Cancel()
}

// WriterSpeaker prints utterances and holds them for a reading-speed delay
// so a terminal behaves like audio output.
type WriterSpeaker struct {
	W       io.Writer
	PerWord time.Duration

	mu sync.Mutex
}

func (s *WriterSpeaker) Speak(ctx context.Context, text string, lang model.Language) error {
	s.mu.Lock()
	_, err := fmt.Fprintf(s.W, "🔊 [%s] %s\n", lang, text)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	timer := time.NewTimer(s.PerWord * time.Duration(len(strings.Fields(text))))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Cancel is a no-op; Speak already observes its context.
func (s *WriterSpeaker) Cancel() {}
