package order

import (
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Additional-Code/mesa/internal/eventbus"
	"github.com/Additional-Code/mesa/internal/presentation/http/response"
	"github.com/Additional-Code/mesa/pkg/errorbank"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// stream upgrades the connection to a websocket and forwards bus events the
// caller's subscription filter admits. Query params: topic (required),
// order_id for the updates topic, area for courier topics. Closing the socket
// tears the subscription down without touching other subscribers.
func (h *Handler) stream(c echo.Context) error {
	identity, role, err := actor(c)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}

	topic := c.QueryParam("topic")
	if topic == "" {
		return response.New(c).WithError(errorbank.BadRequest("topic is required")).Build()
	}

	subscriber := eventbus.Subscriber{
		Identity: identity,
		Role:     role,
		AreaCode: c.QueryParam("area"),
	}
	if raw := c.QueryParam("order_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return response.New(c).WithError(errorbank.BadRequest("invalid order_id", errorbank.WithCause(err))).Build()
		}
		subscriber.OrderID = id
	}

	subscription, err := h.bus.Subscribe(topic, subscriber)
	if err != nil {
		return response.New(c).WithError(errorbank.BadRequest("cannot subscribe", errorbank.WithCause(err))).Build()
	}
	defer subscription.Close()

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Reads only detect the peer hanging up.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-subscription.Events():
			if !ok {
				return nil
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("stream write failed; closing subscriber",
					zap.String("topic", topic),
					zap.Int64("subscriber", identity),
					zap.Error(err),
				)
				return nil
			}
		case <-closed:
			return nil
		case <-c.Request().Context().Done():
			return nil
		}
	}
}
