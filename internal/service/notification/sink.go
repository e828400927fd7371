package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/constants"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/reqctx"
)

// Event is a human-readable notice for one user.
type Event struct {
	UserID     uuid.UUID               `json:"user_id"`
	Type       schema.NotificationType `json:"type"`
	Title      string                  `json:"title"`
	Body       string                  `json:"body,omitempty"`
	Data       map[string]any          `json:"data,omitempty"`
	OccurredAt time.Time               `json:"occurred_at"`
}

// Sink accepts events for asynchronous delivery. Enqueue must not block on
// delivery; an error only means the event could not be handed off.
type Sink interface {
	Enqueue(ctx context.Context, ev Event) error
}

// Subject returns the NATS subject an event type is published on.
func Subject(t schema.NotificationType) string {
	return constants.NotificationSubjectPrefix + "." + string(t)
}

// SubjectWildcard matches every notification subject.
func SubjectWildcard() string {
	return constants.NotificationSubjectPrefix + ".*"
}

// ---------------------------------------------------------------------------
// NATS
// ---------------------------------------------------------------------------

// NATSSink publishes events as JSON; a worker consumes them with Dispatcher.
type NATSSink struct {
	nc *nats.Conn
}

func NewNATSSink(nc *nats.Conn) *NATSSink {
	return &NATSSink{nc: nc}
}

func (s *NATSSink) Enqueue(ctx context.Context, ev Event) error {
	if ev.UserID == uuid.Nil || ev.Type == "" {
		return ErrInvalidEvent
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode notification event: %w", err)
	}
	if err := s.nc.Publish(Subject(ev.Type), data); err != nil {
		return fmt.Errorf("publish notification event: %w", err)
	}
	return nil
}

// DecodeEvent parses a message produced by NATSSink.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode notification event: %w", err)
	}
	if ev.UserID == uuid.Nil || ev.Type == "" {
		return Event{}, ErrInvalidEvent
	}
	return ev, nil
}

// ---------------------------------------------------------------------------
// In-process
// ---------------------------------------------------------------------------

// InlineSink hands events straight to a Dispatcher on a background goroutine.
// Used when no message broker is configured.
type InlineSink struct {
	d       *Dispatcher
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewInlineSink(d *Dispatcher) *InlineSink {
	return &InlineSink{d: d, timeout: 30 * time.Second}
}

func (s *InlineSink) Enqueue(ctx context.Context, ev Event) error {
	if ev.UserID == uuid.Nil || ev.Type == "" {
		return ErrInvalidEvent
	}

	// Detach from the request so delivery outlives the response.
	base := reqctx.WithTrace(context.WithoutCancel(ctx), reqctx.NewChildSpan(ctx))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(base, s.timeout)
		defer cancel()
		if err := s.d.Handle(ctx, ev); err != nil {
			slog.WarnContext(ctx, "notification delivery failed", "type", ev.Type, "user_id", ev.UserID, "error", err)
		}
	}()
	return nil
}

// Wait blocks until every enqueued event has been handled.
func (s *InlineSink) Wait() {
	s.wg.Wait()
}
