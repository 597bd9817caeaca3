package eventbus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/operion-odata/pkg/channels/gochannel"
	"github.com/dukex/operion-odata/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)

	defer func() { _ = bus.Close() }()

	received := make(chan *events.ODataRequestCompleted, 1)

	require.NoError(t, bus.Handle(events.ODataRequestCompletedEvent, func(ctx context.Context, event any) error {
		completed, ok := event.(*events.ODataRequestCompleted)
		if ok {
			received <- completed
		}

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	sent := events.ODataRequestCompleted{
		BaseEvent: events.NewBaseEvent(events.ODataRequestCompletedEvent, "wf-1"),
		ODataRequest: events.ODataRequest{
			ExecutionID: "exec-1",
			NodeID:      "odata-1",
			Method:      "GET",
			RequestType: "listEntitySet",
			StatusCode:  200,
		},
		ItemCount: 1,
	}

	require.NoError(t, bus.Publish(ctx, "exec-1", sent))

	select {
	case got := <-received:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, "odata-1", got.NodeID)
		assert.Equal(t, 200, got.StatusCode)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)

	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}

func TestWatermillEventBus_BlockingPublishDeliversBeforeReturn(t *testing.T) {
	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{}, gochannel.WithBlockingPublish())
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)

	var handled atomic.Int32

	require.NoError(t, bus.Handle(events.ODataRequestFailedEvent, func(context.Context, any) error {
		handled.Add(1)

		return nil
	}))

	ctx := context.Background()
	require.NoError(t, bus.Subscribe(ctx))

	failed := events.ODataRequestFailed{
		BaseEvent:    events.NewBaseEvent(events.ODataRequestFailedEvent, ""),
		ODataRequest: events.ODataRequest{NodeID: "odata-1", Method: "GET"},
		Error:        "status 500",
	}

	require.NoError(t, bus.Publish(ctx, "exec-1", failed))
	require.NoError(t, bus.Close())

	assert.Equal(t, int32(1), handled.Load())
}
