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

	"code_auth/internal/auth"
	"code_auth/internal/config"
	"code_auth/internal/http_server/router"
	"code_auth/internal/lib/hasher"
	"code_auth/internal/lib/jwt"
	sl "code_auth/internal/lib/logger"
	"code_auth/internal/mail/smtp"
	"code_auth/internal/rabbitmq"
	"code_auth/internal/session"
	"code_auth/internal/storage/postgres"
	"code_auth/internal/storage/redis"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting auth service", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := postgres.Migrate(ctx, cfg); err != nil {
		log.Error("failed to apply migrations", sl.Err(err))
		os.Exit(1)
	}

	users, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer users.Close()

	codes, err := redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Error("failed to connect redis", sl.Err(err))
		os.Exit(1)
	}
	defer codes.Close()

	mailer, closeMailer, err := setupMailer(cfg)
	if err != nil {
		log.Error("failed to init mail transport", sl.Err(err))
		os.Exit(1)
	}
	defer closeMailer()

	tokens := jwt.New(
		cfg.Tokens.AccessTokenSecret,
		cfg.Tokens.RefreshTokenSecret,
		cfg.Tokens.AccessTokenTTL,
		cfg.Tokens.RefreshTokenTTL,
	)

	authService := auth.New(
		log,
		users,
		users,
		codes,
		mailer,
		hasher.NewBcrypt(hasher.DefaultCost),
		tokens,
		cfg.Codes.TTL,
	)

	sessions := session.New(log, users, users, tokens)

	mux := router.New(log, authService, sessions, users, tokens, router.Options{
		RefreshTTL:   cfg.Tokens.RefreshTokenTTL,
		SecureCookie: cfg.HTTPServer.CookieSecure,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

// setupMailer выбирает транспорт писем по конфигу. Вторым значением возвращается функция закрытия.
func setupMailer(cfg *config.Config) (auth.Mailer, func(), error) {
	if cfg.Mail.Transport == config.MailTransportSMTP {
		return smtp.New(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password), func() {}, nil
	}

	broker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		return nil, nil, err
	}

	return broker, broker.Close, nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
