package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/csvdock/csvdock/internal/ingest/entity"
)

type captureHandler struct {
	mu      sync.Mutex
	events  []entity.UploadEvent
	failFor int // fail the first n attempts per event id
	tries   map[string]int
}

func (h *captureHandler) Handle(ctx context.Context, event entity.UploadEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tries == nil {
		h.tries = make(map[string]int)
	}
	h.tries[event.EventID]++
	if h.tries[event.EventID] <= h.failFor {
		return errors.New("transient")
	}
	h.events = append(h.events, event)
	return nil
}

func (h *captureHandler) handled() []entity.UploadEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]entity.UploadEvent, len(h.events))
	copy(out, h.events)
	return out
}

func TestConsumerHandlesEvents(t *testing.T) {
	bus := NewBus(8)
	handler := &captureHandler{}
	consumer := NewNotifierConsumer(bus, handler, ConsumerConfig{Workers: 2})
	consumer.Start()

	evt := entity.UploadEvent{EventID: "e1", UploadID: "u1", Status: entity.UploadStatusCompleted, RowCount: 3}
	if err := bus.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish() err = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := consumer.Stop(ctx); err != nil {
		t.Fatalf("Stop() err = %v", err)
	}

	got := handler.handled()
	if len(got) != 1 || got[0].EventID != "e1" {
		t.Fatalf("handled = %+v", got)
	}
}

func TestConsumerSkipsDuplicates(t *testing.T) {
	bus := NewBus(8)
	handler := &captureHandler{}
	consumer := NewNotifierConsumer(bus, handler, ConsumerConfig{Workers: 1})
	consumer.Start()

	evt := entity.UploadEvent{EventID: "dup", UploadID: "u1", Status: entity.UploadStatusFailed, Err: "boom"}
	for i := 0; i < 3; i++ {
		if err := bus.Publish(context.Background(), evt); err != nil {
			t.Fatalf("Publish() err = %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := consumer.Stop(ctx); err != nil {
		t.Fatalf("Stop() err = %v", err)
	}

	if got := handler.handled(); len(got) != 1 {
		t.Fatalf("expected single delivery, got %d", len(got))
	}
}

func TestConsumerRetriesTransientFailures(t *testing.T) {
	bus := NewBus(8)
	handler := &captureHandler{failFor: 2}
	consumer := NewNotifierConsumer(bus, handler, ConsumerConfig{Workers: 1, MaxRetries: 3, BaseBackoff: time.Millisecond})
	consumer.Start()

	evt := entity.UploadEvent{EventID: "retry", UploadID: "u1", Status: entity.UploadStatusCompleted}
	if err := bus.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish() err = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := consumer.Stop(ctx); err != nil {
		t.Fatalf("Stop() err = %v", err)
	}

	if got := handler.handled(); len(got) != 1 {
		t.Fatalf("expected delivery after retries, got %d", len(got))
	}
}

func TestBusClosedRejectsPublish(t *testing.T) {
	bus := NewBus(1)
	bus.Close()

	err := bus.Publish(context.Background(), entity.UploadEvent{EventID: "late"})
	if !errors.Is(err, ErrBusClosed) {
		t.Fatalf("expected ErrBusClosed, got %v", err)
	}
}
