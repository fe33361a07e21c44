package event

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/csvdock/csvdock/internal/ingest/entity"
)

type Handler interface {
	Handle(ctx context.Context, event entity.UploadEvent) error
}

type ConsumerConfig struct {
	Workers     int
	MaxRetries  int
	BaseBackoff time.Duration
}

// NotifierConsumer drains terminal upload events off the bus and hands them
// to a Handler with retries and duplicate suppression.
type NotifierConsumer struct {
	bus         *Bus
	handler     Handler
	workers     int
	maxRetries  int
	baseBackoff time.Duration
	seen        sync.Map
	wg          sync.WaitGroup
}

func NewNotifierConsumer(bus *Bus, handler Handler, cfg ConsumerConfig) *NotifierConsumer {
	workers := cfg.Workers
	if workers < 1 {
		workers = 4
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	baseBackoff := cfg.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = 100 * time.Millisecond
	}

	return &NotifierConsumer{
		bus:         bus,
		handler:     handler,
		workers:     workers,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
	}
}

func (c *NotifierConsumer) Start() {
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
}

func (c *NotifierConsumer) Stop(ctx context.Context) error {
	if c.bus != nil {
		c.bus.Close()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *NotifierConsumer) worker() {
	defer c.wg.Done()

	for event := range c.bus.Subscribe() {
		c.processEvent(event)
	}
}

func (c *NotifierConsumer) processEvent(event entity.UploadEvent) {
	if c.handler == nil {
		return
	}

	if event.EventID != "" {
		if _, loaded := c.seen.LoadOrStore(event.EventID, struct{}{}); loaded {
			slog.Info("skip duplicate upload event", "event_id", event.EventID, "upload_id", event.UploadID)
			return
		}
	}

	backoff := c.baseBackoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		err := c.handler.Handle(context.Background(), event)
		if err == nil {
			return
		}

		if attempt == c.maxRetries {
			slog.Error("failed to handle upload event after retries", "event_id", event.EventID, "upload_id", event.UploadID, "error", err)
			return
		}

		if !sleepBackoff(backoff) {
			return
		}
		backoff *= 2
	}
}

func sleepBackoff(d time.Duration) bool {
	if d <= 0 {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	<-timer.C
	return true
}

// LogNotifier records terminal transitions in the service log; it is the
// default sink when no external notification target is configured.
type LogNotifier struct{}

func (LogNotifier) Handle(ctx context.Context, event entity.UploadEvent) error {
	if event.EventID == "" {
		return errors.New("missing event id")
	}

	if event.Status == entity.UploadStatusFailed {
		slog.Warn("upload failed", "event_id", event.EventID, "upload_id", event.UploadID, "error", event.Err)
		return nil
	}

	slog.Info("upload completed", "event_id", event.EventID, "upload_id", event.UploadID, "row_count", event.RowCount)
	return nil
}
