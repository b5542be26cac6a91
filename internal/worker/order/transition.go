package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/mesa/internal/config"
	"github.com/Additional-Code/mesa/internal/entity"
	"github.com/Additional-Code/mesa/internal/messaging"
	ordersvc "github.com/Additional-Code/mesa/internal/service/order"
	"github.com/Additional-Code/mesa/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/mesa/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewTransitionHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewTransitionHandler sets up a worker handler that turns committed order
// transitions into notification intents. Actually sending mail or push is an
// external system's job; this handler decides who should hear about what.
func NewTransitionHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.TransitionEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order transition", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		for _, target := range notificationTargets(event) {
			logger.Info("notification queued",
				zap.Int64("order_id", event.OrderID),
				zap.String("status", event.Status.String()),
				zap.String("audience", target.audience),
				zap.Int64("recipient", target.recipient),
			)
		}

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}

type notificationTarget struct {
	audience  string
	recipient int64
}

// notificationTargets maps one committed transition to the people who should
// hear about it. The customer follows every step; the owner learns of
// placements and terminal outcomes; the driver of anything on a claimed
// delivery.
func notificationTargets(event ordersvc.TransitionEvent) []notificationTarget {
	targets := []notificationTarget{{audience: "customer", recipient: event.CustomerID}}

	switch event.Status {
	case entity.StatusPending:
		targets = append(targets, notificationTarget{audience: "owner", recipient: event.OwnerID})
	case entity.StatusCooking, entity.StatusCooked:
		if event.DriverID != nil {
			targets = append(targets, notificationTarget{audience: "driver", recipient: *event.DriverID})
		}
	case entity.StatusPickedUp, entity.StatusDelivered, entity.StatusCanceled:
		targets = append(targets, notificationTarget{audience: "owner", recipient: event.OwnerID})
		if event.DriverID != nil {
			targets = append(targets, notificationTarget{audience: "driver", recipient: *event.DriverID})
		}
	}

	return targets
}
