package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/auth"
	"github.com/Meshack-Mesh/house-hunt-view/internal/config"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/accounts"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/dashboard"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/disclosure"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/locations"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/messages"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/payments"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/pricing"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/properties"
	"github.com/Meshack-Mesh/house-hunt-view/internal/external"
	"github.com/Meshack-Mesh/house-hunt-view/internal/handler"
	"github.com/Meshack-Mesh/house-hunt-view/internal/helpers"
	"github.com/Meshack-Mesh/house-hunt-view/internal/jobs"
	"github.com/Meshack-Mesh/house-hunt-view/internal/mailer"
	"github.com/Meshack-Mesh/house-hunt-view/internal/storage/blob"
	"github.com/Meshack-Mesh/house-hunt-view/internal/storage/postgres"
	"github.com/Meshack-Mesh/house-hunt-view/internal/storage/redis"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the payment expiry job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), config.LoadConfig(), !skipMigrate)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply the schema on startup")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, migrate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := postgres.NewDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Str("event", "postgres_connected").Msg("Connected to PostgreSQL database")

	if migrate {
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing Redis client")
		}
	}()
	logger.Info().Str("event", "redis_connected").Msg("Connected to Redis")

	mongoClient, err := blob.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			logger.Error().Err(err).Msg("Error closing MongoDB client")
		}
	}()
	logger.Info().Str("event", "mongo_connected").Msg("Connected to MongoDB")

	propertyRepo := postgres.NewPropertyRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	statsRepo := postgres.NewStatsRepository(db)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	gazetteer := locations.NewGazetteer()
	fees := pricing.Calculate(pricing.Inputs{UnlockFee: cfg.UnlockFee, ListingFee: cfg.ListingFee})

	if cfg.Mpesa.CallbackToken == "" {
		cfg.Mpesa.CallbackToken = strings.ReplaceAll(uuid.NewString(), "-", "")
		logger.Warn().
			Str("event", "callback_token_generated").
			Msg("MPESA_CALLBACK_TOKEN is not set; using a per-process token, callbacks for pushes sent by other instances will be ignored")
	}

	mpesa := external.NewClient(external.Config{
		BaseURL:        cfg.Mpesa.BaseURL,
		ConsumerKey:    cfg.Mpesa.ConsumerKey,
		ConsumerSecret: cfg.Mpesa.ConsumerSecret,
		ShortCode:      cfg.Mpesa.ShortCode,
		PassKey:        cfg.Mpesa.PassKey,
		CallbackURL:    cfg.Mpesa.CallbackEndpoint(),
	})

	mail := mailer.New(mailer.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	accountsService := accounts.NewService(profileRepo, issuer)
	propertiesService := properties.NewServiceWithCache(
		propertyRepo,
		redis.NewPropertyCache(redisClient),
		blob.NewImageStore(mongoClient, cfg.MongoDatabase),
		gazetteer,
		cfg.ListingFeeRequired,
	)
	paymentsService := payments.NewService(
		paymentRepo,
		redis.NewCheckoutIndex(redisClient),
		propertyRepo,
		mpesa,
		fees,
		cfg.PaymentTimeout,
	)
	disclosureService := disclosure.NewService(propertyRepo, profileRepo, paymentsService)
	messagesService := messages.NewService(messageRepo, mail)
	dashboardService := dashboard.NewService(statsRepo)

	server := &handler.Server{
		AuthHandler:       handler.NewAuthHandler(accountsService),
		PropertiesHandler: handler.NewPropertiesHandler(propertiesService, disclosureService),
		LandlordHandler:   handler.NewLandlordHandler(propertiesService),
		PaymentsHandler:   handler.NewPaymentsHandler(paymentsService, cfg.Mpesa.CallbackToken),
		LocationsHandler:  handler.NewLocationsHandler(gazetteer),
		ContactHandler:    handler.NewContactHandler(messagesService),
		AdminHandler:      handler.NewAdminHandler(dashboardService, messagesService),
	}

	doc, err := api.LoadSpec(ctx)
	if err != nil {
		return err
	}
	validator, err := api.RequestValidator(doc)
	if err != nil {
		return err
	}

	expiryJob := jobs.NewPaymentExpiryJob(paymentsService, cfg.PaymentTimeout, cfg.PaymentSweepInterval)
	expiryJob.Start()
	defer expiryJob.Stop()

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
			MaxAge:         300,
		}),
		helpers.RequestLoggerWithBody,
		validator,
		auth.Authenticate(issuer),
	)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Pool.Ping(pingCtx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := redisClient.Ping(pingCtx); err != nil {
			http.Error(w, "cache unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%s", cfg.Port)

	srv := &http.Server{
		Addr:           addr,
		Handler:        api.HandlerFromMux(server, router),
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return listenAndServe(ctx, srv)
}

// listenAndServe runs srv until it fails or the process receives SIGINT or
// SIGTERM, then drains in-flight requests.
func listenAndServe(ctx context.Context, srv *http.Server) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("event", "server_starting").Str("addr", srv.Addr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Str("event", "server_stopping").Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
