package events_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/domain"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/events"
	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/store/memory"
)

type captureNotifier struct {
	seen []domain.Event
}

func (c *captureNotifier) Notify(_ context.Context, ev domain.Event) error {
	c.seen = append(c.seen, ev)
	return nil
}

func TestEmitPersistsAndNotifies(t *testing.T) {
	st := memory.New()
	capture := &captureNotifier{}
	bus := &events.Bus{Store: st, Notifiers: []events.Notifier{capture}}

	ev, err := bus.Emit(context.Background(), events.TopicStockDelivered, "item-1", map[string]any{"qty": 3})
	require.NoError(t, err)
	require.NotEmpty(t, ev.ID)
	require.Equal(t, events.TopicStockDelivered, ev.Topic)
	require.JSONEq(t, `{"qty":3}`, string(ev.Payload))

	stored := st.Events()
	require.Len(t, stored, 1)
	require.Len(t, capture.seen, 1)
	require.Equal(t, ev.ID, capture.seen[0].ID)
}

func TestEmitValidatesInput(t *testing.T) {
	bus := &events.Bus{Store: memory.New()}
	_, err := bus.Emit(context.Background(), "", "agg", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicStockAdjusted, "", nil)
	require.Error(t, err)
}
