package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/domain"
)

// Recorder persists emitted events. The record store implements it.
type Recorder interface {
	InsertEvent(ctx context.Context, ev domain.Event) (domain.Event, error)
}

// Notifier reacts to emitted events.
type Notifier interface {
	Notify(ctx context.Context, ev domain.Event) error
}

// Bus records domain events and fans them out to notifiers. Emission is
// best-effort for callers: services log a returned error but never fail the
// business operation because of it.
type Bus struct {
	Store     Recorder
	Notifiers []Notifier
}

// Emit persists the event and dispatches it to all notifiers.
func (b *Bus) Emit(ctx context.Context, topic, aggregateID string, payload any) (domain.Event, error) {
	if b == nil || b.Store == nil {
		return domain.Event{}, errors.New("events: store not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return domain.Event{}, errors.New("events: topic is required")
	}
	if strings.TrimSpace(aggregateID) == "" {
		return domain.Event{}, errors.New("events: aggregate id is required")
	}
	encoded, err := encodePayload(payload)
	if err != nil {
		return domain.Event{}, fmt.Errorf("events: encode payload: %w", err)
	}
	ev, err := b.Store.InsertEvent(ctx, domain.Event{
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     encoded,
	})
	if err != nil {
		return domain.Event{}, fmt.Errorf("events: persist event: %w", err)
	}
	var joined error
	for _, n := range b.Notifiers {
		if n == nil {
			continue
		}
		if nerr := n.Notify(ctx, ev); nerr != nil {
			joined = errors.Join(joined, fmt.Errorf("events: notifier: %w", nerr))
		}
	}
	return ev, joined
}

func encodePayload(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case nil:
		return []byte("{}"), nil
	case []byte:
		if len(v) == 0 {
			return []byte("{}"), nil
		}
		if !json.Valid(v) {
			return nil, errors.New("payload is not valid json")
		}
		return append([]byte(nil), v...), nil
	default:
		return json.Marshal(v)
	}
}

// LogNotifier writes every event to the structured log.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, ev domain.Event) error {
	n.Logger.Info().
		Str("topic", ev.Topic).
		Str("aggregate_id", ev.AggregateID).
		RawJSON("payload", ev.Payload).
		Msg("domain_event")
	return nil
}
