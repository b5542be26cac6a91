package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Additional-Code/mesa/internal/entity"
	ordersvc "github.com/Additional-Code/mesa/internal/service/order"
)

func TestNotificationTargets(t *testing.T) {
	driver := int64(9)
	base := ordersvc.TransitionEvent{
		OrderID:      42,
		CustomerID:   3,
		RestaurantID: 5,
		OwnerID:      7,
	}

	withStatus := func(status entity.Status, driverID *int64) ordersvc.TransitionEvent {
		event := base
		event.Status = status
		event.DriverID = driverID
		return event
	}

	audiences := func(targets []notificationTarget) []string {
		out := make([]string, 0, len(targets))
		for _, target := range targets {
			out = append(out, target.audience)
		}
		return out
	}

	t.Run("placement notifies customer and owner", func(t *testing.T) {
		targets := notificationTargets(withStatus(entity.StatusPending, nil))
		assert.Equal(t, []string{"customer", "owner"}, audiences(targets))
		assert.Equal(t, int64(3), targets[0].recipient)
		assert.Equal(t, int64(7), targets[1].recipient)
	})

	t.Run("kitchen progress reaches only the customer before a claim", func(t *testing.T) {
		targets := notificationTargets(withStatus(entity.StatusCooking, nil))
		assert.Equal(t, []string{"customer"}, audiences(targets))
	})

	t.Run("kitchen progress includes the driver after a claim", func(t *testing.T) {
		targets := notificationTargets(withStatus(entity.StatusCooked, &driver))
		assert.Equal(t, []string{"customer", "driver"}, audiences(targets))
		assert.Equal(t, driver, targets[1].recipient)
	})

	t.Run("pickup and terminal outcomes reach everyone", func(t *testing.T) {
		for _, status := range []entity.Status{entity.StatusPickedUp, entity.StatusDelivered} {
			targets := notificationTargets(withStatus(status, &driver))
			assert.Equal(t, []string{"customer", "owner", "driver"}, audiences(targets), "status %s", status)
		}
	})

	t.Run("cancellation before a claim skips the driver", func(t *testing.T) {
		targets := notificationTargets(withStatus(entity.StatusCanceled, nil))
		assert.Equal(t, []string{"customer", "owner"}, audiences(targets))
	})
}
