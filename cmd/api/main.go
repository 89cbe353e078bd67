package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventreserve/config"
	_ "eventreserve/docs"
	"eventreserve/internal/adapters/auth"
	"eventreserve/internal/adapters/ticket"
	deliveryhttp "eventreserve/internal/delivery/http"
	"eventreserve/internal/delivery/http/controllers"
	"eventreserve/internal/delivery/http/middleware"
	"eventreserve/internal/repository/postgres"
	"eventreserve/internal/services"
)

// @title Event Reservation API
// @version 1.0
// @description Event publication, seat reservation, and ticketing API.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	db, err := postgres.Open(cfg.DBUrl)
	if err != nil {
		logger.Error("connect database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	issuer, verifier := auth.NewJWTProvider(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(0)

	userRepo := postgres.NewUserRepository(db)
	tokenRepo := postgres.NewRefreshTokenRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)
	uow := postgres.NewReservationUnitOfWork(db)

	const serviceTimeout = 10 * time.Second
	authService := services.NewAuthService(userRepo, tokenRepo, hasher, issuer, verifier, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, serviceTimeout)
	eventService := services.NewEventService(eventRepo, serviceTimeout)
	reservationService := services.NewReservationService(uow, reservationRepo, serviceTimeout)

	mux := deliveryhttp.NewRouter(
		controllers.NewAuthController(logger, authService),
		controllers.NewEventController(logger, eventService),
		controllers.NewReservationController(logger, reservationService, ticket.NewPDFRenderer()),
		verifier,
	)

	rdb := config.NewRedisClient(cfg)
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting disabled")
	}
	var handler http.Handler = mux
	handler = middleware.RateLimit(middleware.DefaultRateLimitConfig(), rdb, logger, handler)
	handler = middleware.Logging(logger, handler)
	handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
