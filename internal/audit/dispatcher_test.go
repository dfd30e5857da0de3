package audit

import (
	"context"
	"testing"
	"time"
)

func TestDispatcherDeliversToSink(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	d.Emit(context.Background(), Event{EventType: KindLoginRequest, Success: true})
	d.Close()

	select {
	case event := <-sink.Events():
		if event.EventType != KindLoginRequest || !event.Success {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(64)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 64}, sink)

	const total = 10
	for i := 0; i < total; i++ {
		d.Emit(context.Background(), Event{EventType: KindAuthenticate})
	}
	d.Close()

	for i := 0; i < total; i++ {
		select {
		case <-sink.Events():
		case <-time.After(time.Second):
			t.Fatalf("event %d lost on close", i)
		}
	}
}

func TestDispatcherDisabled(t *testing.T) {
	d := NewDispatcher(Config{}, NewChannelSink(1))
	if d != nil {
		t.Fatal("disabled dispatcher should be nil")
	}

	// Nil dispatchers accept all calls.
	d.Emit(context.Background(), Event{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestDispatcherDropIfFull(t *testing.T) {
	// A sink that never consumes: the run loop blocks on the first event,
	// the buffer holds one more, everything after that is dropped.
	blocked := make(chan struct{})
	sink := blockingSink{release: blocked}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	deadline := time.Now().Add(time.Second)
	for d.Dropped() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no events were dropped")
		}
		d.Emit(context.Background(), Event{})
	}

	close(blocked)
	d.Close()
}

func TestDispatcherEmitAfterClose(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)
	d.Close()

	d.Emit(context.Background(), Event{EventType: "late"})

	select {
	case event := <-sink.Events():
		t.Fatalf("event emitted after close was delivered: %+v", event)
	default:
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(context.Context, Event) {
	<-s.release
}
