package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/ladderleague/ladder-api/internal/config"
	"github.com/ladderleague/ladder-api/internal/domain/admin"
	"github.com/ladderleague/ladder-api/internal/domain/credits"
	"github.com/ladderleague/ladder-api/internal/domain/feeschedule"
	"github.com/ladderleague/ladder-api/internal/domain/ledger"
	"github.com/ladderleague/ladder-api/internal/domain/membership"
	"github.com/ladderleague/ladder-api/internal/domain/notification"
	"github.com/ladderleague/ladder-api/internal/domain/player"
	"github.com/ladderleague/ladder-api/internal/domain/review"
	"github.com/ladderleague/ladder-api/internal/domain/settlement"
	"github.com/ladderleague/ladder-api/internal/middleware"
	"github.com/ladderleague/ladder-api/internal/pkg/database"
	"github.com/ladderleague/ladder-api/internal/pkg/gateway"
	"github.com/ladderleague/ladder-api/internal/pkg/jwt"
	"github.com/ladderleague/ladder-api/internal/pkg/logger"
	pkgresponse "github.com/ladderleague/ladder-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Ladder League API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if cfg.MigrateOnStart {
		if err := database.Migrate(db, "migrations"); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Policies ----------
	scheduleDefaults := feeschedule.FeeSchedule{
		Version:          1,
		RegistrationFee:  cfg.RegistrationFee,
		WeeklyDues:       cfg.WeeklyDues,
		TotalWeeks:       cfg.TotalWeeks,
		ParticipationFee: cfg.ParticipationFee,
		MatchFee:         cfg.MatchFee,
		MembershipFee:    cfg.MembershipFee,
		PenaltyStrike1:   cfg.PenaltyStrike1,
		PenaltyStrike2:   cfg.PenaltyStrike2,
		PenaltyStrike3:   cfg.PenaltyStrike3,
	}
	balancePolicy := ledger.BalancePolicy{PartialLimit: cfg.PartialBalanceLimit}
	trustPolicy := ledger.TrustPolicy{
		TrustedMinPayments:  cfg.TrustedMinPayments,
		TrustedMinRate:      cfg.TrustedMinRate,
		VerifiedMinPayments: cfg.VerifiedMinPayments,
		VerifiedMinRate:     cfg.VerifiedMinRate,
	}

	// ---------- Repositories ----------
	ledgerRepo := ledger.NewRepository(db)
	creditsRepo := credits.NewRepository(db)
	membershipRepo := membership.NewRepository(db)
	matchRepo := settlement.NewMatchRepository(db)
	scheduleRepo := feeschedule.NewRepository(db)
	playerRepo := player.NewRepository(db)
	adminRepo := admin.NewRepository(db)

	// ---------- Notifications ----------
	var notifier notification.Notifier = notification.Nop{}
	if redis != nil {
		notifier = notification.NewRedisPublisher(redis)
	}
	hub := notification.NewHub(redis, cfg.AllowedOrigins)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	// ---------- Gateway ----------
	var charger settlement.Charger
	if cfg.GatewayBaseURL != "" {
		charger = gateway.NewClient(gateway.Config{
			BaseURL:    cfg.GatewayBaseURL,
			MerchantID: cfg.GatewayMerchantID,
			SecretKey:  cfg.GatewaySecretKey,
			Timeout:    cfg.GatewayTimeout,
		})
	}

	// ---------- Services ----------
	scheduleService := feeschedule.NewService(scheduleRepo, scheduleDefaults)
	creditsService := credits.NewService(db, creditsRepo, ledgerRepo, scheduleService)
	settlementService := settlement.NewService(
		db, ledgerRepo, creditsRepo, membershipRepo, matchRepo,
		scheduleService, trustPolicy, charger, notifier,
	)
	reviewService := review.NewService(db, ledgerRepo, membershipRepo, matchRepo, notifier)
	adminService := admin.NewService(adminRepo, jwtService)

	// ---------- Handlers ----------
	ledgerHandler := ledger.NewHandler(ledgerRepo, scheduleService, balancePolicy, trustPolicy, notifier)
	creditsHandler := credits.NewHandler(creditsService)
	settlementHandler := settlement.NewHandler(settlementService)
	webhookHandler := settlement.NewWebhookHandler(cfg.GatewaySecretKey)
	reviewHandler := review.NewHandler(reviewService)
	scheduleHandler := feeschedule.NewHandler(scheduleService)
	playerHandler := player.NewHandler(playerRepo)
	adminHandler := admin.NewHandler(adminService)

	authMiddleware := middleware.Auth(jwtService)
	adminOnly := middleware.RequireRole("admin")

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// Admin live feed. Token arrives as a query parameter because
	// browsers cannot set headers on websocket upgrades.
	r.Get("/ws/feed", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		authMiddleware(http.HandlerFunc(hub.ServeWS)).ServeHTTP(w, r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/admin", adminHandler.Routes())

		r.Route("/players", func(r chi.Router) {
			r.Use(authMiddleware)
			playerHandler.Register(r)
			ledgerHandler.Register(r)
			creditsHandler.Register(r)
		})

		r.Mount("/matches", settlementHandler.MatchRoutes(authMiddleware))
		r.Mount("/payments", settlementHandler.PaymentRoutes(authMiddleware))
		r.Mount("/review", reviewHandler.Routes(authMiddleware, adminOnly))
		r.Mount("/feeschedule", scheduleHandler.Routes(authMiddleware, adminOnly))
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/gateway", webhookHandler.Handle)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	stopHub()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
