package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"code_auth/internal/config"
	sl "code_auth/internal/lib/logger"
	"code_auth/internal/mail"
	"code_auth/internal/mail/smtp"
	"code_auth/internal/models"
	"code_auth/internal/rabbitmq"
)

const (
	envLocal = "local"
	envDev   = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoadMailSender()
	log := setupLogger(cfg.Env)

	log.Info("Starting mail_sender", slog.String("env", cfg.Env))

	if err := run(ctx, cfg, log); err != nil {
		log.Error("mail_sender stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("service gracefully stopped")
}

func run(ctx context.Context, cfg *config.MailSender, log *slog.Logger) error {
	r, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		return err
	}
	defer r.Close()

	m := smtp.New(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password)

	log.Info("consumer successfully started", slog.String("queue", cfg.RabbitMQ.QueueName))

	return r.StartReading(ctx, log, func(_ context.Context, msg models.Message) error {
		if err := m.Send(msg.Email, mail.ConfirmationSubject, mail.ConfirmationBody(msg.Code)); err != nil {
			return err
		}

		log.Info("message sent successfully", slog.String("purpose", msg.Purpose))

		return nil
	})
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
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
