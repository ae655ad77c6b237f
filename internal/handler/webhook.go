package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"grocollect/internal/service"
)

type WebhookHandler struct {
	paymentService service.PaymentService
}

func NewWebhookHandler(paymentService service.PaymentService) *WebhookHandler {
	return &WebhookHandler{
		paymentService: paymentService,
	}
}

// LygosWebhook receives the payment provider callback. The body is
// passed through as raw bytes: the HMAC covers the body exactly as
// received, so it must never be reserialized before verification.
func (h *WebhookHandler) LygosWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	signature := c.Request().Header.Get("X-Lygos-Signature")
	if signature == "" {
		signature = c.Request().Header.Get("X-Lygos-Signature-Sha256")
	}

	if err := h.paymentService.HandleWebhook(ctx, c.RealIP(), signature, body); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
