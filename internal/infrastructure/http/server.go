package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	handlers "github.com/muk2/SagaApi/internal/adapter/handler/http"
	"github.com/muk2/SagaApi/internal/config"
	"github.com/muk2/SagaApi/internal/middleware/auth"
	"github.com/muk2/SagaApi/internal/usecase"
	pkgErrors "github.com/muk2/SagaApi/pkg/errors"
	"github.com/muk2/SagaApi/pkg/logger"
	"go.uber.org/zap"
)

type Server struct {
	config  *config.Config
	logger  *zap.Logger
	echo    *echo.Echo
	service *usecase.PaymentService
}

func NewServer(cfg *config.Config, log *zap.Logger, service *usecase.PaymentService) *Server {
	e := echo.New()
	e.HideBanner = true

	// Errors that escape a handler get their code-to-status mapping applied
	// before the default handler renders them.
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		e.DefaultHTTPErrorHandler(pkgErrors.ToHTTPError(err), c)
	}

	// Middleware
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
	}))

	return &Server{
		config:  cfg,
		logger:  log,
		echo:    e,
		service: service,
	}
}

func (s *Server) Start() error {
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	paymentHandler := handlers.NewPaymentHandler(s.service, s.logger)
	adminHandler := handlers.NewAdminPaymentHandler(s.service, s.logger)

	// The health endpoint sits outside this group, so no skip list is
	// needed; everything the middleware sees requires a token.
	jwtConfig := auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
	}

	v1 := s.echo.Group("/api/v1", auth.JWTMiddleware(jwtConfig))

	// Member routes
	v1.POST("/payments/charge", paymentHandler.Charge)
	v1.GET("/payments/:id", paymentHandler.GetPayment)

	// Admin routes
	admin := v1.Group("", auth.RequireAdmin(s.logger))
	admin.GET("/payments", adminHandler.ListPayments)
	admin.POST("/admin/payments/:id/refund", adminHandler.RefundPayment)
	admin.POST("/admin/payments/:id/void", adminHandler.VoidPayment)
}
