package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/thecinephile/api/auth"
	"github.com/thecinephile/api/config"
	"github.com/thecinephile/api/lists"
	"github.com/thecinephile/api/mailer"
	"github.com/thecinephile/api/migrations"
	"github.com/thecinephile/api/tmdb"
)

func main() {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := openDatabase(cfg)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Up(ctx, db.DB, dialect); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	provisioner := lists.NewProvisioner()
	notifier := newNotifier(cfg, logger)

	auther := auth.NewAuthenticator(repo, cfg).WithLogger(logger)
	registerHandler := auth.NewRegisterUserHandler(repo, provisioner, notifier, cfg.GetOTPLifetime(), logger)
	verifyHandler := auth.NewVerifyEmailHandler(repo, provisioner, auther.TokenService(), notifier, logger)

	authController := auth.NewAuthController(
		auth.WithAuther(auther),
		auth.WithCommands(registerHandler, verifyHandler),
		auth.WithConfig(cfg),
		auth.WithControllerLogger(logger),
	)
	usersController := auth.NewUsersController(repo, logger)
	listsController := lists.NewListsController(lists.NewLists(db), cfg.GetContextKey(), logger)
	searchController := tmdb.NewSearchController(tmdb.NewClient(cfg.TMDBToken), logger)

	guard := auth.Protected(auther, cfg.GetContextKey(), logger)

	app := fiber.New(fiber.Config{AppName: cfg.AppName})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Welcome to " + cfg.AppName,
		})
	})
	app.Get("/up", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down"})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "up"})
	})

	api := app.Group("/api/v1")
	auth.RegisterAuthRoutes(api, authController, guard)
	auth.RegisterUserRoutes(api, usersController, guard)
	lists.RegisterListRoutes(api, listsController, guard)
	tmdb.RegisterSearchRoutes(api, searchController, guard)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "port", cfg.Port, "app", cfg.AppName)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func openDatabase(cfg *config.Config) (*bun.DB, string, error) {
	if cfg.DatabaseURL != "" {
		sqldb, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, "", err
		}
		return bun.NewDB(sqldb, pgdialect.New()), "postgres", nil
	}

	// Local development fallback.
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:cinephile.db?cache=shared&_fk=1")
	if err != nil {
		return nil, "", err
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), "sqlite3", nil
}

func newNotifier(cfg *config.Config, logger auth.Logger) auth.Notifier {
	m, err := mailer.New(mailer.Config{
		AppName:  cfg.AppName,
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, logger)
	if err != nil {
		logger.Warn("mail delivery disabled", "error", err)
		return auth.NoopNotifier{Logger: logger}
	}
	return m
}

type slogLogger struct {
	l *slog.Logger
}

func newLogger() slogLogger {
	return slogLogger{l: slog.New(slog.NewTextHandler(os.Stdout, nil))}
}

func (s slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }
