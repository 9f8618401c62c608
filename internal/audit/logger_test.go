package audit

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFromRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	req := httptest.NewRequest("POST", "/api/teacher/start-class", nil)
	req.Header.Set("X-Real-IP", "10.0.0.7")
	req.Header.Set("User-Agent", "test-agent")
	req = req.WithContext(logger.WithContext(req.Context()))

	LogFromRequest(req, Event{
		Type:     EventClassStart,
		UserID:   "teacher-1",
		Role:     "teacher",
		JoinCode: "ABC234",
		Details:  map[string]interface{}{"subject": "Math", "attempts": 2},
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "security", entry["audit"])
	assert.Equal(t, "class_start", entry["event_type"])
	assert.Equal(t, "teacher-1", entry["user_id"])
	assert.Equal(t, "teacher", entry["role"])
	assert.Equal(t, "AB****", entry["join_code"])
	assert.Equal(t, "10.0.0.7", entry["ip"])
	assert.Equal(t, "test-agent", entry["user_agent"])
	assert.Equal(t, "Math", entry["subject"])
	assert.EqualValues(t, 2, entry["attempts"])
}

func TestMaskCode(t *testing.T) {
	assert.Equal(t, "****", maskCode("A"))
	assert.Equal(t, "GO****", maskCode("GOOG1234"))
}
