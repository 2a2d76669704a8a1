package event

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var received Event
	unsub := bus.Subscribe(CoverageReported, func(e Event) {
		received = e
	})
	defer unsub()

	bus.Publish(Event{Type: CoverageReported, Data: "report-1"})

	if received.Type != CoverageReported {
		t.Errorf("Expected CoverageReported, got %v", received.Type)
	}
	if received.Data != "report-1" {
		t.Errorf("Expected 'report-1', got %v", received.Data)
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var count int32
	unsub := bus.SubscribeAll(func(e Event) {
		atomic.AddInt32(&count, 1)
	})
	defer unsub()

	bus.Publish(Event{Type: FilesChanged})
	bus.Publish(Event{Type: CoverageInstrumented})
	bus.Publish(Event{Type: CoverageReported})

	if got := atomic.LoadInt32(&count); got != 3 {
		t.Errorf("Expected 3 events, got %d", got)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var count int32
	unsub := bus.Subscribe(FilesChanged, func(e Event) {
		atomic.AddInt32(&count, 1)
	})

	bus.Publish(Event{Type: FilesChanged})
	unsub()
	bus.Publish(Event{Type: FilesChanged})

	if got := atomic.LoadInt32(&count); got != 1 {
		t.Errorf("Expected 1 event, got %d", got)
	}
}

func TestBus_EventTypeFiltering(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var files, reports int32
	bus.Subscribe(FilesChanged, func(e Event) { atomic.AddInt32(&files, 1) })
	bus.Subscribe(CoverageReported, func(e Event) { atomic.AddInt32(&reports, 1) })

	bus.Publish(Event{Type: FilesChanged})
	bus.Publish(Event{Type: FilesChanged})
	bus.Publish(Event{Type: CoverageReported})

	if files != 2 || reports != 1 {
		t.Errorf("Expected 2 files and 1 report event, got %d and %d", files, reports)
	}
}

func TestBus_Stream(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := bus.Stream(ctx, FilesChanged)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	bus.Publish(Event{Type: FilesChanged, Data: FilesChangedData{Path: "src/a.js", Op: "WRITE"}})

	select {
	case ev := <-events:
		raw, ok := ev.Data.(json.RawMessage)
		if !ok {
			t.Fatalf("Expected json.RawMessage, got %T", ev.Data)
		}
		var data FilesChangedData
		if err := json.Unmarshal(raw, &data); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if data.Path != "src/a.js" || data.Op != "WRITE" {
			t.Errorf("Unexpected data: %+v", data)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for streamed event")
	}
}

func TestBus_ClosedBusIgnoresPublish(t *testing.T) {
	bus := NewBus()

	var count int32
	bus.Subscribe(FilesChanged, func(e Event) { atomic.AddInt32(&count, 1) })
	if err := bus.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	bus.Publish(Event{Type: FilesChanged})

	if count != 0 {
		t.Errorf("Expected no delivery after close, got %d", count)
	}
	if unsub := bus.Subscribe(FilesChanged, func(Event) {}); unsub == nil {
		t.Error("Expected a no-op unsubscribe func")
	}
}

func TestReset(t *testing.T) {
	var count int32
	Subscribe(FilesChanged, func(e Event) { atomic.AddInt32(&count, 1) })

	Reset()
	Publish(Event{Type: FilesChanged})

	if count != 0 {
		t.Errorf("Expected subscribers to be dropped by Reset, got %d", count)
	}
}
