package api

import (
	"net"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/pulseapp/pulse-survey/internal/api/docs"
	"github.com/pulseapp/pulse-survey/internal/api/handler"
	"github.com/pulseapp/pulse-survey/internal/api/metrics"
	"github.com/pulseapp/pulse-survey/internal/api/middleware"
	"github.com/pulseapp/pulse-survey/internal/core/domain"
	"github.com/pulseapp/pulse-survey/internal/core/ports"
	"github.com/pulseapp/pulse-survey/internal/infrastructure/http/handlers"
	"github.com/pulseapp/pulse-survey/internal/pkg/token"
)

const bodyLimit = "64K"

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Log           zerolog.Logger
	Tokens        *token.Manager
	AuthService   ports.AuthService
	SurveyService ports.SurveyService
	LoginLimiter  ports.LoginLimiter
	Audit         ports.AuditSink

	// HealthChecks are run by /health/ready, keyed by dependency name.
	HealthChecks     map[string]handlers.Check
	CORSAllowOrigins []string
	SwaggerEnabled   bool

	// TrustedProxies are the only peers whose X-Forwarded-For is honoured
	// when resolving the client IP. Empty means the socket peer is the client.
	TrustedProxies []*net.IPNet
}

// Every /surveys route needs one of these roles unless it declares its own.
var surveyGroupRoles = []domain.Role{domain.RoleEmployee, domain.RoleAdmin}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.IPExtractor = ipExtractor(d.TrustedProxies)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:  corsOrigins(d.CORSAllowOrigins),
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders: []string{echo.HeaderContentDisposition},
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	// metrics wraps the request logger so the logger still sees handler errors.
	e.Use(metrics.Middleware())
	e.Use(requestLogger(d.Log))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.AuthService)
	auth := middleware.Auth(d.Tokens)

	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login, middleware.LoginThrottle(d.LoginLimiter, d.Log))
	e.GET("/auth/profile", authHandler.Profile, auth, middleware.RBAC())

	// --- Survey routes ---
	surveyHandler := handler.NewSurveyHandler(d.SurveyService, d.Audit)
	surveys := e.Group("/surveys", auth)
	guard := func(routeRoles ...domain.Role) echo.MiddlewareFunc {
		return middleware.RBAC(middleware.EffectiveRoles(surveyGroupRoles, routeRoles)...)
	}

	surveys.POST("", surveyHandler.Submit, guard())
	surveys.GET("", surveyHandler.ListOwn, guard())
	surveys.GET("/all", surveyHandler.ListAll, guard(domain.RoleAdmin))
	surveys.GET("/export/json", surveyHandler.ExportJSON, guard(domain.RoleAdmin))
	surveys.GET("/export/csv", surveyHandler.ExportCSV, guard(domain.RoleAdmin))

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.HealthChecks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if d.SwaggerEnabled {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	return e
}

// ipExtractor decides what c.RealIP() returns. Client-supplied forwarding
// headers are ignored unless the direct peer is a configured proxy.
func ipExtractor(proxies []*net.IPNet) echo.IPExtractor {
	if len(proxies) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, p := range proxies {
		opts = append(opts, echo.TrustIPRange(p))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
