package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"notebook/internal/config"
	"notebook/internal/database"
	"notebook/internal/handlers"
	"notebook/internal/logger"
	"notebook/internal/repositories"
	"notebook/internal/services"
	"notebook/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// server owns every long-lived resource of the process.
type server struct {
	app    *fiber.App
	db     *gorm.DB
	mq     *rabbitmq.Client
	logger zerolog.Logger
}

func newServer(cfg *config.Config, log zerolog.Logger) (*server, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}

	s := &server{db: db, logger: log}

	// Event publishing is optional; without RABBITMQ_URL services skip it.
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			_ = database.Close(db)
			return nil, err
		}
		s.mq = mq
		publisher = mq
	}

	userRepo := repositories.NewGORMUserRepository(db, log)
	noteRepo := repositories.NewGORMNoteRepository(db, log)

	s.app = handlers.NewApp(handlers.Deps{
		AuthService: services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, publisher, log),
		UserService: services.NewUserService(userRepo, log),
		NoteService: services.NewNoteService(noteRepo, publisher, log),
		Logger:      log,
		HealthCheck: func(ctx context.Context) error { return database.Ping(ctx, db) },
		AccessLog:   true,
	})
	return s, nil
}

// consumeEvents logs every lifecycle event the service publishes.
func (s *server) consumeEvents(ctx context.Context) error {
	if s.mq == nil {
		return nil
	}
	return s.mq.ConsumeEvents(ctx, "notebook.audit", "#", func(e rabbitmq.Event) error {
		s.logger.Info().Str("event", e.Type).Str("message_id", e.ID).Time("occurred_at", e.OccurredAt).Msg("event received")
		return nil
	})
}

func (s *server) close() {
	if s.mq != nil {
		if err := s.mq.Close(); err != nil {
			s.logger.Error().Err(err).Msg("error closing RabbitMQ client")
		}
	}
	if err := database.Close(s.db); err != nil {
		s.logger.Error().Err(err).Msg("error closing database")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	srv, err := newServer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer srv.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.consumeEvents(ctx); err != nil {
		log.Error().Err(err).Msg("failed to start event consumer")
	}

	go func() {
		log.Info().Str("addr", cfg.AppPort).Msg("starting server")
		if err := srv.app.Listen(cfg.AppPort); err != nil {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")
	if err := srv.app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during Fiber shutdown")
	}
	log.Info().Msg("server gracefully stopped")
}
