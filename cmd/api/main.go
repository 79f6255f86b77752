// Command api serves the event planner HTTP API.
//
// @title Event Planner API
// @version 1.0
// @description Events with guest rosters, vendor service offers and capability-scoped event tokens.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @securityDefinitions.apikey EventToken
// @in header
// @name X-Event-Token
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"eventplanner/config"
	_ "eventplanner/docs"
	"eventplanner/internal/adapters/auth"
	"eventplanner/internal/adapters/email"
	"eventplanner/internal/adapters/idempotency"
	httpdelivery "eventplanner/internal/delivery/http"
	"eventplanner/internal/delivery/http/controllers"
	"eventplanner/internal/delivery/http/middleware"
	"eventplanner/internal/domain"
	"eventplanner/internal/repository/memory"
	"eventplanner/internal/repository/postgres"
	"eventplanner/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := config.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// stores groups the repositories chosen by STORAGE_DRIVER.
type stores struct {
	events  domain.EventRepository
	users   domain.UserRepository
	vendors domain.VendorProfileRepository
	close   func() error
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		return &stores{
			events:  memory.NewEventRepository(),
			users:   memory.NewUserRepository(),
			vendors: memory.NewVendorProfileRepository(),
			close:   func() error { return nil },
		}, nil
	}
	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &stores{
		events:  postgres.NewEventRepository(db),
		users:   postgres.NewUserRepository(db),
		vendors: postgres.NewVendorProfileRepository(db),
		close:   db.Close,
	}, nil
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Warn("close storage", "err", err)
		}
	}()

	var deduper domain.Deduper
	if cfg.RedisURL != "" {
		rc, err := idempotency.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rc.Close()
		deduper = idempotency.NewRedisDeduper(rc, cfg.IdempotencyTTL)
	} else {
		logger.Info("REDIS_URL not set; Idempotency-Key is ignored")
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return err
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return err
	}
	emailService := services.NewEmailService(mailer, renderer, logger)

	issuer, verifier := auth.NewJWTSession(cfg.JWTSecret)
	signer := auth.NewEventTokenSigner(cfg.EventTokenSecret, nil)
	timeout := cfg.RequestTimeout

	authorizer := services.NewAuthorizer(st.events, signer, cfg.EventTokenLifetime, timeout)
	notifier := services.NewNotifier(st.events, timeout)
	userService := services.NewUserService(st.users, st.vendors, timeout)
	eventService := services.NewEventService(st.events, notifier, timeout)
	rosterService := services.NewRosterService(st.events, st.users, st.vendors, emailService, logger, timeout)
	authService := services.NewAuthService(st.users, auth.NewBcryptHasher(bcrypt.DefaultCost), issuer, cfg.JWTLifetime, timeout)

	mux := httpdelivery.NewRouter(httpdelivery.RouterDeps{
		Logger:     logger,
		Verifier:   verifier,
		Authorizer: authorizer,
		Deduper:    deduper,
		Auth:       controllers.NewAuthController(logger, authService),
		Users:      controllers.NewUserController(logger, userService, notifier),
		Events:     controllers.NewEventController(logger, eventService, userService, authorizer),
		Roster:     controllers.NewRosterController(logger, rosterService),
	})
	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "env", cfg.Environment, "storage", cfg.StorageDriver)
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

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
