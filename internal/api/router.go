package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/expenseflow/reimbursement/docs"
	"github.com/expenseflow/reimbursement/internal/api/handler"
	"github.com/expenseflow/reimbursement/internal/api/metrics"
	"github.com/expenseflow/reimbursement/internal/api/middleware"
	"github.com/expenseflow/reimbursement/internal/core/domain"
	"github.com/expenseflow/reimbursement/internal/core/ports"
)

// BasePath prefixes every business route.
const BasePath = "/api/v1"

// Dependencies are the services and probes the router wires into handlers.
type Dependencies struct {
	Auth           ports.AuthService
	Reimbursements ports.ReimbursementService
	Users          ports.UserService
	Checks         []handler.DependencyCheck
	Logger         zerolog.Logger
	// Registry receives HTTP and domain metrics. A fresh registry is
	// created when nil.
	Registry *prometheus.Registry
	// RequestLog enables echo's access log middleware.
	RequestLog bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	if err := metrics.Register(reg); err != nil {
		deps.Logger.Warn().Err(err).Msg("register domain metrics")
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	if deps.RequestLog {
		e.Use(echomiddleware.Logger())
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "reimbursement",
		Subsystem:  "http",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	reimbursementHandler := handler.NewReimbursementHandler(deps.Reimbursements)
	userHandler := handler.NewUserHandler(deps.Users)
	authMiddleware := middleware.Auth(deps.Auth)
	canApprove := middleware.RBAC(domain.RoleManager, domain.RoleAdmin)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	v1 := e.Group(BasePath)

	// --- Auth routes ---
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/logout", authHandler.Logout, authMiddleware)

	// --- Reimbursement routes ---
	rb := v1.Group("/reimbursements", authMiddleware)
	rb.GET("", reimbursementHandler.ListMine)
	rb.POST("", reimbursementHandler.Create)
	rb.GET("/pending", reimbursementHandler.ListPending, canApprove)
	rb.GET("/all", reimbursementHandler.ListAll, adminOnly)
	rb.GET("/:id", reimbursementHandler.Get)
	rb.PUT("/:id/approve", reimbursementHandler.Approve, canApprove)
	rb.PUT("/:id/reject", reimbursementHandler.Reject, canApprove)

	// --- User administration ---
	users := v1.Group("/users", authMiddleware, adminOnly)
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
