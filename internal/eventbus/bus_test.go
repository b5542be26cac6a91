package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/mesa/internal/entity"
)

func sampleEvent(orderID int64, status entity.Status) Event {
	return Event{
		OrderID:      orderID,
		CustomerID:   3,
		RestaurantID: 5,
		OwnerID:      7,
		Status:       status,
		AreaCode:     "11680",
	}
}

// receive drains at most one event without blocking; publication is
// synchronous, so anything delivered is already buffered.
func receive(t *testing.T, sub *Subscription) (Event, bool) {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		return event, ok
	default:
		return Event{}, false
	}
}

func TestSubscribe(t *testing.T) {
	bus := NewBus(4, zap.NewNop())
	defer bus.Close()

	t.Run("unknown topic", func(t *testing.T) {
		_, err := bus.Subscribe("orders.flambeed", Subscriber{})
		assert.ErrorIs(t, err, ErrUnknownTopic)
	})

	t.Run("after close", func(t *testing.T) {
		closed := NewBus(4, zap.NewNop())
		closed.Close()
		_, err := closed.Subscribe(TopicOrderUpdates, Subscriber{})
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestOwnerFanOut(t *testing.T) {
	bus := NewBus(4, zap.NewNop())
	defer bus.Close()

	owner7, err := bus.Subscribe(TopicPendingOrders, Subscriber{Identity: 7, Role: entity.RoleOwner})
	require.NoError(t, err)
	owner8, err := bus.Subscribe(TopicPendingOrders, Subscriber{Identity: 8, Role: entity.RoleOwner})
	require.NoError(t, err)
	courier, err := bus.Subscribe(TopicPendingOrders, Subscriber{Identity: 7, Role: entity.RoleDelivery})
	require.NoError(t, err)

	bus.Publish(TopicPendingOrders, sampleEvent(42, entity.StatusPending))

	event, ok := receive(t, owner7)
	require.True(t, ok, "owner 7 should receive their restaurant's order")
	assert.Equal(t, int64(42), event.OrderID)
	assert.Equal(t, TopicPendingOrders, event.Topic)
	assert.False(t, event.OccurredAt.IsZero())

	_, ok = receive(t, owner8)
	assert.False(t, ok, "owner 8 must not see another restaurant's order")

	_, ok = receive(t, courier)
	assert.False(t, ok, "role mismatch must not deliver, identity match or not")
}

func TestAreaCourierFanOut(t *testing.T) {
	bus := NewBus(4, zap.NewNop())
	defer bus.Close()

	near, err := bus.Subscribe(TopicCookedOrders, Subscriber{Identity: 9, Role: entity.RoleDelivery, AreaCode: "11680"})
	require.NoError(t, err)
	alsoNear, err := bus.Subscribe(TopicCookedOrders, Subscriber{Identity: 11, Role: entity.RoleDelivery, AreaCode: "11680"})
	require.NoError(t, err)
	far, err := bus.Subscribe(TopicCookedOrders, Subscriber{Identity: 13, Role: entity.RoleDelivery, AreaCode: "99999"})
	require.NoError(t, err)

	bus.Publish(TopicCookedOrders, sampleEvent(42, entity.StatusCooked))

	_, ok := receive(t, near)
	assert.True(t, ok)
	_, ok = receive(t, alsoNear)
	assert.True(t, ok, "every courier in the area receives a copy")
	_, ok = receive(t, far)
	assert.False(t, ok)
}

func TestParticipantUpdates(t *testing.T) {
	bus := NewBus(4, zap.NewNop())
	defer bus.Close()

	customer, err := bus.Subscribe(TopicOrderUpdates, Subscriber{Identity: 3, Role: entity.RoleClient, OrderID: 42})
	require.NoError(t, err)
	otherOrder, err := bus.Subscribe(TopicOrderUpdates, Subscriber{Identity: 3, Role: entity.RoleClient, OrderID: 43})
	require.NoError(t, err)
	stranger, err := bus.Subscribe(TopicOrderUpdates, Subscriber{Identity: 4, Role: entity.RoleClient, OrderID: 42})
	require.NoError(t, err)
	driverSub, err := bus.Subscribe(TopicOrderUpdates, Subscriber{Identity: 9, Role: entity.RoleDelivery, OrderID: 42})
	require.NoError(t, err)

	t.Run("unassigned driver sees nothing", func(t *testing.T) {
		bus.Publish(TopicOrderUpdates, sampleEvent(42, entity.StatusCooking))

		_, ok := receive(t, customer)
		assert.True(t, ok)
		_, ok = receive(t, otherOrder)
		assert.False(t, ok, "updates are scoped to the subscribed order")
		_, ok = receive(t, stranger)
		assert.False(t, ok)
		_, ok = receive(t, driverSub)
		assert.False(t, ok)
	})

	t.Run("assigned driver becomes a participant", func(t *testing.T) {
		driver := int64(9)
		event := sampleEvent(42, entity.StatusPickedUp)
		event.DriverID = &driver
		bus.Publish(TopicOrderUpdates, event)

		_, ok := receive(t, driverSub)
		assert.True(t, ok)
	})
}

func TestCloseStopsDelivery(t *testing.T) {
	bus := NewBus(4, zap.NewNop())
	defer bus.Close()

	sub, err := bus.Subscribe(TopicOrderUpdates, Subscriber{Identity: 3, OrderID: 42, Role: entity.RoleClient})
	require.NoError(t, err)

	keeper, err := bus.Subscribe(TopicOrderUpdates, Subscriber{Identity: 3, OrderID: 42, Role: entity.RoleClient})
	require.NoError(t, err)

	sub.Close()
	sub.Close() // idempotent

	bus.Publish(TopicOrderUpdates, sampleEvent(42, entity.StatusCooking))

	_, open := <-sub.Events()
	assert.False(t, open, "closed subscription's channel is closed")

	_, ok := receive(t, keeper)
	assert.True(t, ok, "closing one subscription must not disturb others")
}

func TestBusCloseClosesSubscribers(t *testing.T) {
	bus := NewBus(4, zap.NewNop())
	sub, err := bus.Subscribe(TopicOrderUpdates, Subscriber{Identity: 3, OrderID: 42, Role: entity.RoleClient})
	require.NoError(t, err)

	bus.Close()
	bus.Close() // idempotent

	_, open := <-sub.Events()
	assert.False(t, open)

	// Publishing after close is a no-op, not a panic.
	bus.Publish(TopicOrderUpdates, sampleEvent(42, entity.StatusCooking))
}

func TestConcurrentBusAndSubscriptionClose(t *testing.T) {
	// A subscriber tearing down while the bus shuts down must not wedge
	// either side; afterwards publishing must still return immediately.
	for i := 0; i < 50; i++ {
		bus := NewBus(4, zap.NewNop())

		subs := make([]*Subscription, 0, 4)
		for j := 0; j < 4; j++ {
			sub, err := bus.Subscribe(TopicOrderUpdates, Subscriber{Identity: 3, OrderID: 42, Role: entity.RoleClient})
			require.NoError(t, err)
			subs = append(subs, sub)
		}

		done := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1 + len(subs))
		go func() {
			defer wg.Done()
			bus.Close()
		}()
		for _, sub := range subs {
			go func(sub *Subscription) {
				defer wg.Done()
				sub.Close()
			}(sub)
		}
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("concurrent Bus.Close and Subscription.Close did not return")
		}

		bus.Publish(TopicOrderUpdates, sampleEvent(42, entity.StatusCooking))
		for _, sub := range subs {
			_, open := <-sub.Events()
			assert.False(t, open)
		}
	}
}

func TestSlowSubscriberDropsNotBlocks(t *testing.T) {
	bus := NewBus(2, zap.NewNop())
	defer bus.Close()

	slow, err := bus.Subscribe(TopicOrderUpdates, Subscriber{Identity: 3, OrderID: 42, Role: entity.RoleClient})
	require.NoError(t, err)

	statuses := []entity.Status{
		entity.StatusPending,
		entity.StatusCooking,
		entity.StatusCooked,
		entity.StatusPickedUp,
	}
	for _, s := range statuses {
		bus.Publish(TopicOrderUpdates, sampleEvent(42, s))
	}

	// Buffer holds two; the rest were dropped, oldest kept first.
	first, ok := receive(t, slow)
	require.True(t, ok)
	assert.Equal(t, entity.StatusPending, first.Status)

	second, ok := receive(t, slow)
	require.True(t, ok)
	assert.Equal(t, entity.StatusCooking, second.Status)

	_, ok = receive(t, slow)
	assert.False(t, ok)
}

func TestDeliveryPreservesPublishOrder(t *testing.T) {
	bus := NewBus(16, zap.NewNop())
	defer bus.Close()

	sub, err := bus.Subscribe(TopicOrderUpdates, Subscriber{Identity: 3, OrderID: 42, Role: entity.RoleClient})
	require.NoError(t, err)

	want := []entity.Status{
		entity.StatusPending,
		entity.StatusCooking,
		entity.StatusCooked,
		entity.StatusPickedUp,
		entity.StatusDelivered,
	}
	for _, s := range want {
		bus.Publish(TopicOrderUpdates, sampleEvent(42, s))
	}

	var got []entity.Status
	for range want {
		event, ok := receive(t, sub)
		require.True(t, ok)
		got = append(got, event.Status)
	}
	assert.Equal(t, want, got)
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	bus := NewBus(64, zap.NewNop())
	defer bus.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			sub, err := bus.Subscribe(TopicOrderUpdates, Subscriber{Identity: 3, OrderID: n, Role: entity.RoleClient})
			if err != nil {
				return
			}
			defer sub.Close()
			bus.Publish(TopicOrderUpdates, sampleEvent(n, entity.StatusCooking))
			<-sub.Events()
		}(int64(i))
	}
	wg.Wait()
}
