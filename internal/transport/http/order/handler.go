package order

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/mesa/internal/dto"
	"github.com/Additional-Code/mesa/internal/entity"
	"github.com/Additional-Code/mesa/internal/eventbus"
	"github.com/Additional-Code/mesa/internal/presentation/http/response"
	service "github.com/Additional-Code/mesa/internal/service/order"
	"github.com/Additional-Code/mesa/pkg/errorbank"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/mesa/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc    *service.Service
	bus    *eventbus.Bus
	logger *zap.Logger
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service, bus *eventbus.Bus, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, bus: bus, logger: logger}
}

// Register routes with provided Echo group.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.POST("/:id/status", h.requestTransition)
	g.POST("/:id/driver", h.assignDriver)
	g.GET("/stream", h.stream)
}

// actor extracts the authenticated caller from gateway-injected headers. The
// authentication pipeline upstream validates credentials; these headers are
// its output.
func actor(c echo.Context) (int64, entity.Role, error) {
	id, err := strconv.ParseInt(c.Request().Header.Get("X-Actor-Id"), 10, 64)
	if err != nil {
		return 0, "", errorbank.Unauthorized("missing actor identity", errorbank.WithCause(err))
	}
	role := entity.Role(c.Request().Header.Get("X-Actor-Role"))
	if err := role.Validate(); err != nil {
		return 0, "", errorbank.Unauthorized("missing actor role", errorbank.WithCause(err))
	}
	return id, role, nil
}

func orderID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errorbank.BadRequest("invalid id", errorbank.WithCause(err))
	}
	return id, nil
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	identity, role, err := actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		RestaurantID int64  `json:"restaurant_id"`
		Address      string `json:"address"`
		Items        []struct {
			DishID  int64    `json:"dish_id"`
			Choices []string `json:"choices"`
		} `json:"items"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.RestaurantID == 0 || payload.Address == "" {
		return b.WithError(errorbank.BadRequest("restaurant_id and address are required")).Build()
	}

	input := service.CreateInput{
		RestaurantID: payload.RestaurantID,
		Address:      payload.Address,
	}
	for _, item := range payload.Items {
		input.Items = append(input.Items, service.ItemInput{DishID: item.DishID, Choices: item.Choices})
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(
		attribute.Int64("restaurant.id", payload.RestaurantID),
	))
	defer span.End()

	order, err := h.svc.Create(ctx, identity, role, input)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(toDTO(order)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	identity, role, err := actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id, err := orderID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id, identity, role)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(order)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	identity, role, err := actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	status := entity.Status(c.QueryParam("status"))

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	orders, total, pages, err := h.svc.List(ctx, identity, role, status, page)
	if err != nil {
		return b.WithError(err).Build()
	}

	result := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		result = append(result, toDTO(&orders[i]))
	}

	return b.WithData(result).
		WithMeta("total_items", total).
		WithMeta("total_pages", pages).
		WithMeta("page", page).
		Build()
}

func (h *Handler) requestTransition(c echo.Context) error {
	b := response.New(c)

	identity, role, err := actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id, err := orderID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.Status == "" {
		return b.WithError(errorbank.BadRequest("status is required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.requestTransition", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status.target", payload.Status),
	))
	defer span.End()

	if err := h.svc.RequestTransition(ctx, id, identity, role, entity.Status(payload.Status)); err != nil {
		return b.WithError(err).Build()
	}

	return b.Build()
}

func (h *Handler) assignDriver(c echo.Context) error {
	b := response.New(c)

	identity, role, err := actor(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	id, err := orderID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.assignDriver", trace.WithAttributes(
		attribute.Int64("order.id", id),
	))
	defer span.End()

	if err := h.svc.AssignDriver(ctx, id, identity, role); err != nil {
		return b.WithError(err).Build()
	}

	return b.Build()
}

func toDTO(order *entity.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:           order.ID,
		CustomerID:   order.CustomerID,
		RestaurantID: order.RestaurantID,
		DriverID:     order.DriverID,
		Total:        order.Total,
		Status:       order.Status.String(),
		Address:      order.Address,
		AreaCode:     order.AreaCode,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{DishID: item.DishID, Choices: item.Choices})
	}
	return resp
}
