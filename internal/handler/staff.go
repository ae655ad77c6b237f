package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"grocollect/internal/dto"
	"grocollect/internal/middleware"
	"grocollect/internal/service"
)

type StaffHandler struct {
	authService   service.AuthService
	pickupService service.PickupService
}

func NewStaffHandler(authService service.AuthService, pickupService service.PickupService) *StaffHandler {
	return &StaffHandler{
		authService:   authService,
		pickupService: pickupService,
	}
}

func (h *StaffHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.authService.Login(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// ValidateCode is stage 1 of the pickup protocol (preparer/admin).
func (h *StaffHandler) ValidateCode(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ValidateCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	finalCode, err := h.pickupService.ValidateTemporaryCode(ctx,
		middleware.StaffFromContext(c), req.OrderID, req.TemporaryCode)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.ValidateCodeResponse{FinalCode: finalCode})
}

// VerifyFinalCode is stage 2 of the pickup protocol (cashier/admin).
func (h *StaffHandler) VerifyFinalCode(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.VerifyFinalCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.pickupService.VerifyFinalCode(ctx,
		middleware.StaffFromContext(c), req.OrderID, req.FinalCode); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "pickup completed"})
}

func (h *StaffHandler) StartPreparation(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.pickupService.StartPreparation(ctx,
		middleware.StaffFromContext(c), c.Param("id")); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "preparation started"})
}

func (h *StaffHandler) MarkReady(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.pickupService.MarkReady(ctx,
		middleware.StaffFromContext(c), c.Param("id")); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "order ready"})
}
