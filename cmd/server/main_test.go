package main

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classroom-assistant/classroom-go/internal/sse"
)

func TestNewServer_ShutdownEndsEventStreams(t *testing.T) {
	broker := sse.NewBroker(nil)

	stream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := broker.Subscribe("ABC234")
		defer broker.Unsubscribe(client)

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "event: connected\n\n")
		w.(http.Flusher).Flush()

		select {
		case <-client.Done:
		case <-r.Context().Done():
		}
	})

	ts := httptest.NewUnstartedServer(stream)
	ts.Config = newServer("", stream, broker)
	ts.Start()
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "event: connected\n", line)
	require.Equal(t, 1, broker.TotalClients())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, ts.Config.Shutdown(ctx))
	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, broker.TotalClients())
}
