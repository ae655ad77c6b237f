package server

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"grocollect/internal/domain"
	"grocollect/internal/handler"
	"grocollect/internal/middleware"
	"grocollect/internal/model"
	"grocollect/internal/service"
)

type Server struct {
	echo           *echo.Echo
	orderHandler   *handler.OrderHandler
	webhookHandler *handler.WebhookHandler
	staffHandler   *handler.StaffHandler
	jwtSecret      string
}

func NewServer(
	orderService service.OrderService,
	paymentService service.PaymentService,
	authService service.AuthService,
	pickupService service.PickupService,
	jwtSecret string,
	logger *zap.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	e.Validator = &requestValidator{validate: validator.New()}
	e.HTTPErrorHandler = errorHandler(logger)

	s := &Server{
		echo:           e,
		orderHandler:   handler.NewOrderHandler(orderService),
		webhookHandler: handler.NewWebhookHandler(paymentService),
		staffHandler:   handler.NewStaffHandler(authService, pickupService),
		jwtSecret:      jwtSecret,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	api.POST("/orders", s.orderHandler.CreateOrder)
	api.GET("/orders/:id", s.orderHandler.GetOrder)
	api.GET("/pickup-slots", s.orderHandler.ListPickupSlots)

	// -------- payments --------
	payments := api.Group("/payments")
	payments.POST("/initiate", s.orderHandler.InitiatePayment)
	payments.POST("/lygos/webhook", s.webhookHandler.LygosWebhook)

	// -------- staff --------
	staff := api.Group("/staff")
	staff.POST("/login", s.staffHandler.Login)

	authed := staff.Group("", middleware.StaffAuth(s.jwtSecret))
	authed.POST("/validate-code", s.staffHandler.ValidateCode,
		middleware.RequireRole(model.RolePreparer))
	authed.POST("/verify-final-code", s.staffHandler.VerifyFinalCode,
		middleware.RequireRole(model.RoleCashier))
	authed.POST("/orders/:id/start-preparation", s.staffHandler.StartPreparation,
		middleware.RequireRole(model.RolePreparer))
	authed.POST("/orders/:id/ready", s.staffHandler.MarkReady,
		middleware.RequireRole(model.RolePreparer))
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return domain.Validation("%v", err)
	}
	return nil
}

// errorHandler maps the domain error taxonomy to HTTP in one place so
// no handler hand-picks status codes.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	statusFor := map[domain.Kind]int{
		domain.KindValidation:        http.StatusBadRequest,
		domain.KindNotFound:          http.StatusNotFound,
		domain.KindInvalidCode:       http.StatusBadRequest,
		domain.KindIllegalTransition: http.StatusConflict,
		domain.KindSignature:         http.StatusUnauthorized,
		domain.KindRateLimited:       http.StatusTooManyRequests,
		domain.KindUpstream:          http.StatusBadGateway,
		domain.KindUnauthorized:      http.StatusUnauthorized,
		domain.KindForbidden:         http.StatusForbidden,
	}

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var de *domain.Error
		if errors.As(err, &de) {
			status, ok := statusFor[de.Kind]
			if !ok {
				status = http.StatusInternalServerError
			}
			_ = c.JSON(status, map[string]string{
				"error": de.Message,
				"code":  de.Kind.String(),
			})
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, map[string]interface{}{"error": he.Message})
			return
		}

		logger.Error("unhandled request error", zap.Error(err))
		_ = c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
