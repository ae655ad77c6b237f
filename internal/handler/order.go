package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"grocollect/internal/dto"
	"grocollect/internal/service"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// userID is optional: guest checkout carries no account link
	userID, _ := c.Get("user_id").(string)

	order, err := h.orderService.Create(ctx, &req, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.GetByID(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListPickupSlots(c echo.Context) error {
	ctx := c.Request().Context()

	slots, err := h.orderService.ListSlots(ctx, c.QueryParam("date"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, slots)
}

func (h *OrderHandler) InitiatePayment(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.orderService.InitiatePayment(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
