package live

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classroom-assistant/classroom-go/internal/model"
)

func TestWriterSpeaker(t *testing.T) {
	var buf bytes.Buffer
	s := &WriterSpeaker{W: &buf}

	require.NoError(t, s.Speak(context.Background(), "Zing chibai", model.LanguageMizo))
	assert.Equal(t, "🔊 [mizo] Zing chibai\n", buf.String())
}

func TestWriterSpeaker_Cancelled(t *testing.T) {
	var buf bytes.Buffer
	s := &WriterSpeaker{W: &buf, PerWord: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Speak(ctx, "one two", model.LanguageBodo)
	assert.ErrorIs(t, err, context.Canceled)
}
