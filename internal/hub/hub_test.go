package hub

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensemaker/internal/service"
)

func TestFrame(t *testing.T) {
	msg, err := frame(service.Event{Type: service.EventMethodRun, Payload: map[string]int{"inputs": 2}})
	require.NoError(t, err)
	assert.Equal(t, "event: method_run\ndata: {\"type\":\"method_run\",\"payload\":{\"inputs\":2}}\n\n", string(msg))
}

func TestStreamsForwardedEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	bus := service.NewEventBus()
	go h.Run(ctx)
	h.Forward(ctx, bus)

	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, ": connected", lines.Text())

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	bus.Publish(service.Event{Type: service.EventAppletRegistered, Payload: "todo"})

	var got []string
	for lines.Scan() {
		line := lines.Text()
		if line == "" {
			break
		}
		if !strings.HasPrefix(line, ":") {
			got = append(got, line)
		}
	}
	assert.Equal(t, []string{
		"event: applet_registered",
		`data: {"type":"applet_registered","payload":"todo"}`,
	}, got)
}

func TestRunStopsAndDisconnects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := New(nil)
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	srv := httptest.NewServer(h)
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 0, h.ClientCount())
	_, err = io.ReadAll(resp.Body)
	assert.NoError(t, err)
}
