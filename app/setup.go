package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/biosecret/go-todo/auth"
	"github.com/biosecret/go-todo/config"
	"github.com/biosecret/go-todo/database"
	"github.com/biosecret/go-todo/events"
	"github.com/biosecret/go-todo/handlers"
	"github.com/biosecret/go-todo/models"
	"github.com/biosecret/go-todo/router"
	"github.com/biosecret/go-todo/services"
	"github.com/biosecret/go-todo/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// Server is a fully wired application.
type Server struct {
	App *fiber.App

	backend database.Backend
	hub     *events.Hub
	stream  *handlers.EventHandler
	mqtt    *events.MQTTPublisher
}

// New opens the configured storage and builds the fiber app.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	setLogLevel(cfg.LogLevel)

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &Server{backend: backend}

	secret := []byte(cfg.JWT.Secret)
	if len(secret) == 0 {
		secret, err = utils.GenerateSecret(32)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		log.Warn("JWT_SECRET is not set, using a random key; tokens will not survive a restart")
	}
	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:   secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.TTL,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	hasher, err := auth.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.hub = events.NewHub(16)
	notifier := events.Fanout{s.hub}
	if cfg.MQTTURL != "" {
		s.mqtt, err = events.NewMQTTPublisher(cfg.MQTTURL)
		if err != nil {
			s.Close()
			return nil, err
		}
		notifier = append(notifier, s.mqtt)
	}
	s.stream = handlers.NewEventHandler(s.hub, 15*time.Second)

	users := services.NewUserService(database.NewCollection[models.User](backend, "users"), hasher, tokens)
	tasks := services.NewTaskService(database.NewCollection[models.Task](backend, "tasks"), notifier)

	app := fiber.New(fiber.Config{
		AppName:      "todo-api",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Authorization,Content-Type",
	}))

	// error recovery, request ids and access log
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${ip}]:${port} ${locals:requestid} ${status} - ${method} ${path} ${latency}\n",
	}))

	router.SetupRoutes(app, router.Routes{
		Env:            cfg.Env,
		Storage:        backend.Driver(),
		LoginRateLimit: cfg.LoginRateLimit,
		Users:          handlers.NewUserHandler(users),
		Tasks:          handlers.NewTaskHandler(tasks),
		Events:         s.stream,
		Tokens:         tokens,
	})

	config.AddSwaggerRoutes(app, handlers.Version)

	s.App = app
	return s, nil
}

func openBackend(ctx context.Context, cfg config.Config) (database.Backend, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		return database.StartPostgreSQL(ctx, cfg.Storage.PostgresURI)
	default:
		log.Infow("Using JSON file storage", "dir", cfg.Storage.DataDir)
		return database.NewFileBackend(cfg.Storage.DataDir)
	}
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(log.LevelDebug)
	case "warn":
		log.SetLevel(log.LevelWarn)
	case "error":
		log.SetLevel(log.LevelError)
	default:
		log.SetLevel(log.LevelInfo)
	}
}

// Close ends open event streams and releases the broker and storage.
func (s *Server) Close() {
	if s.stream != nil {
		s.stream.Close()
	}
	if s.mqtt != nil {
		s.mqtt.Close()
	}
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			log.Errorw("error closing storage", "error", err)
		}
	}
}

// SetupAndRunApp starts the application
func SetupAndRunApp() error {
	// load .env
	err := config.LoadENV()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	s, err := New(context.Background(), cfg)
	if err != nil {
		return err
	}

	// make sure storage is released when the app exits
	defer s.Close()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Info("Shutting down")
		s.stream.Close()
		if err := s.App.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Errorw("error during shutdown", "error", err)
		}
	}()

	log.Infow("Starting server", "env", cfg.Env, "port", cfg.Port, "storage", cfg.Storage.Driver)
	return s.App.Listen(":" + cfg.Port)
}
