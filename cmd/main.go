package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"lifefence/internal/account"
	"lifefence/internal/api"
	"lifefence/internal/config"
	"lifefence/internal/database"
	"lifefence/internal/group"
	"lifefence/internal/location"
	"lifefence/internal/session"
	"lifefence/internal/task"
	"lifefence/internal/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg := config.NewConfig()

	db := database.NewDatabase()
	if err := db.Connect(ctx, cfg.DatabaseURL()); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	validate, err := validator.New()
	if err != nil {
		return fmt.Errorf("failed to build validator: %w", err)
	}

	sessions := session.NewStore(redisClient, cfg.Session.TokenBytes, cfg.Session.ExpiresIn)

	accounts := account.NewAuthenticator(db, sessions, logger)
	groups := group.NewManager(db, logger)
	locations := location.NewManager(db, logger)
	personal := task.NewPersonalManager(db, logger)
	groupTasks := task.NewGroupManager(db, groups, logger)
	actions := task.NewActionManager(db, logger)
	events := task.NewEventManager(db, groups, logger)

	handler := api.NewHandler(api.HandlerParams{
		Accounts:   accounts,
		Groups:     groups,
		Locations:  locations,
		Personal:   personal,
		GroupTasks: groupTasks,
		Actions:    actions,
		Events:     events,
		Sessions:   sessions,
		Validate:   validate,
		Logger:     logger,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})
	handler.RegisterRoutes(app)

	errCh := make(chan error, 1)
	go func() {
		addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
		logger.Info("server listening", slog.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return app.Shutdown()
	case err := <-errCh:
		return err
	}
}
