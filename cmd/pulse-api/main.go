// Command pulse-api serves the pulse survey REST API.
//
//	@title						Pulse Survey API
//	@version					1.0
//	@description				Employee pulse surveys: submit short responses, admins list and export them.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/pulseapp/pulse-survey/internal/api"
	"github.com/pulseapp/pulse-survey/internal/core/ports"
	"github.com/pulseapp/pulse-survey/internal/core/service"
	"github.com/pulseapp/pulse-survey/internal/infrastructure/config"
	"github.com/pulseapp/pulse-survey/internal/infrastructure/db/memory"
	redisdb "github.com/pulseapp/pulse-survey/internal/infrastructure/db/redis"
	"github.com/pulseapp/pulse-survey/internal/infrastructure/http/handlers"
	"github.com/pulseapp/pulse-survey/internal/infrastructure/queue"
	"github.com/pulseapp/pulse-survey/internal/pkg/token"
	"github.com/pulseapp/pulse-survey/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not configured yet; fall back to a bare one.
		l := zerolog.New(os.Stderr).With().Timestamp().Logger()
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "pulse-api",
		Env:     cfg.Env,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
	log.Info().Msg("server exited")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	tokens, err := token.NewManager(cfg.JWT.Secret, cfg.JWT.Expiration)
	if err != nil {
		return err
	}
	proxies, err := cfg.TrustedProxyNets()
	if err != nil {
		return err
	}

	// --- Audit trail ---
	// Workers outlive ctx; the deferred Close drains them after the server
	// has stopped taking requests.
	dispatcher := queue.NewDispatcher(cfg.Workers, service.NewAuditService(log), log)
	dispatcher.Start(context.Background())
	defer func() {
		dispatcher.Close()
		log.Info().Msg("audit queue drained")
	}()

	// --- Stores ---
	db := memory.Open()
	users := memory.NewUserRepository(db)
	surveys := memory.NewSurveyRepository(db)

	var limiter ports.LoginLimiter = memory.NewLoginLimiter(cfg.Login.MaxAttempts, cfg.Login.BlockDuration)
	checks := map[string]handlers.Check{}
	if cfg.Redis.Addr != "" {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		limiter = redisdb.NewLoginLimiter(rdb, cfg.Login.MaxAttempts, cfg.Login.BlockDuration)
		checks["redis"] = redisdb.HealthCheck(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("login throttling backed by redis")
	}

	// --- Services ---
	authService := service.NewAuthService(users, tokens, dispatcher, log)
	surveyService := service.NewSurveyService(surveys, dispatcher, log)

	if cfg.Seed.AdminEmail != "" {
		if _, err := authService.SeedAdmin(ctx, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword); err != nil {
			return err
		}
	}

	e := api.NewRouter(api.Deps{
		Log:              log,
		Tokens:           tokens,
		AuthService:      authService,
		SurveyService:    surveyService,
		LoginLimiter:     limiter,
		Audit:            dispatcher,
		HealthChecks:     checks,
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
		SwaggerEnabled:   cfg.HTTP.SwaggerEnabled,
		TrustedProxies:   proxies,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
