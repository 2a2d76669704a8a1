package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jasmine-go/jasmine/internal/event"
)

type mockResponseWriter struct {
	*httptest.ResponseRecorder
	flushed int
}

func (m *mockResponseWriter) Flush() {
	m.flushed++
}

func newMockResponseWriter() *mockResponseWriter {
	return &mockResponseWriter{
		ResponseRecorder: httptest.NewRecorder(),
	}
}

type noFlushWriter struct{}

func (n *noFlushWriter) Header() http.Header       { return http.Header{} }
func (n *noFlushWriter) Write([]byte) (int, error) { return 0, nil }
func (n *noFlushWriter) WriteHeader(int)           {}

func TestNewSSEWriter_NoFlusher(t *testing.T) {
	if _, err := newSSEWriter(&noFlushWriter{}); err == nil {
		t.Error("Expected error for writer without Flusher")
	}
}

func TestSSEWriter_WriteEvent(t *testing.T) {
	w := newMockResponseWriter()
	sse, err := newSSEWriter(w)
	if err != nil {
		t.Fatalf("newSSEWriter failed: %v", err)
	}

	if err := sse.writeEvent("test", map[string]string{"message": "hello"}); err != nil {
		t.Fatalf("writeEvent failed: %v", err)
	}

	body := w.Body.String()
	if !strings.Contains(body, "event: test\n") {
		t.Error("Expected event line")
	}
	if !strings.Contains(body, `data: {"message":"hello"}`) {
		t.Errorf("Expected data line, got %s", body)
	}
	if w.flushed == 0 {
		t.Error("Expected Flush to be called")
	}
}

func TestSSEWriter_WriteHeartbeat(t *testing.T) {
	w := newMockResponseWriter()
	sse, _ := newSSEWriter(w)

	sse.writeHeartbeat()

	if !strings.Contains(w.Body.String(), ": heartbeat\n") {
		t.Errorf("Expected heartbeat comment, got: %s", w.Body.String())
	}
}

// readMessage returns the decoded data of the next SSE message.
func readMessage(t *testing.T, r *bufio.Reader) StreamEvent {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("stream ended: %v", err)
		}
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var ev StreamEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				t.Fatalf("bad event %q: %v", data, err)
			}
			return ev
		}
	}
}

func TestEvents_Stream(t *testing.T) {
	srv, _, bus := setupTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, "GET", ts.URL+EventsPath+"?type="+string(event.FilesChanged), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("Content-Type") != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %s", resp.Header.Get("Content-Type"))
	}

	r := bufio.NewReader(resp.Body)
	if ev := readMessage(t, r); ev.Type != "server.connected" {
		t.Fatalf("Expected server.connected first, got %s", ev.Type)
	}

	// Filtered out by ?type.
	bus.Publish(event.Event{Type: event.CoverageReported, Data: event.CoverageReportedData{}})
	bus.Publish(event.Event{Type: event.FilesChanged, Data: event.FilesChangedData{Path: "/project/a.js", Op: "CREATE"}})

	ev := readMessage(t, r)
	if ev.Type != event.FilesChanged {
		t.Fatalf("Expected files.changed, got %s", ev.Type)
	}
	props, _ := ev.Properties.(map[string]any)
	if props["path"] != "/project/a.js" {
		t.Errorf("Unexpected properties %v", ev.Properties)
	}
}
