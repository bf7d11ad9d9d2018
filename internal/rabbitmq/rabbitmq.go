package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sl "code_auth/internal/lib/logger"
	"code_auth/internal/mail"
	"code_auth/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrChannelClosed = errors.New("delivery channel closed")

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	Close() error
}

type RabbitMQClient struct {
	conn    *amqp.Connection
	channel channel
	queue   string
}

func New(urlForConn string, queueName string) (*RabbitMQClient, error) {
	const op = "rabbimq.New"

	conn, err := amqp.Dial(urlForConn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	q, err := ch.QueueDeclare(
		queueName, true, false, false, false, nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RabbitMQClient{
		conn:    conn,
		channel: ch,
		queue:   q.Name,
	}, nil
}

// * SendCode ставит письмо с кодом в очередь. Ошибка публикации считается ошибкой доставки.
func (r *RabbitMQClient) SendCode(ctx context.Context, address, code string) error {
	const op = "rabbimq.SendCode"

	msg := models.Message{
		Email:   address,
		Code:    code,
		Purpose: mail.PurposeConfirmation,
	}

	if err := r.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w: %w", op, mail.ErrDelivery, err)
	}

	return nil
}

func (r *RabbitMQClient) SendMessage(ctx context.Context, msg models.Message) error {
	const op = "rabbimq.SendMessage"

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		"",
		r.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * StartReading читает очередь до отмены контекста.
// Успешно обработанные сообщения подтверждаются, битые отбрасываются.
// При ошибке обработчика сообщение возвращается в очередь один раз,
// после повторной неудачи отбрасывается.
func (r *RabbitMQClient) StartReading(
	ctx context.Context,
	log *slog.Logger,
	handler func(ctx context.Context, msg models.Message) error,
) error {
	const op = "rabbimq.StartReading"

	if err := r.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	deliveries, err := r.channel.Consume(r.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("%s: %w", op, ErrChannelClosed)
			}

			handleDelivery(ctx, log, d, handler)
		}
	}
}

func handleDelivery(
	ctx context.Context,
	log *slog.Logger,
	d amqp.Delivery,
	handler func(ctx context.Context, msg models.Message) error,
) {
	var msg models.Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Error("failed to unmarshal message", sl.Err(err))

		if err := d.Nack(false, false); err != nil {
			log.Error("failed to nack message", sl.Err(err))
		}

		return
	}

	if err := handler(ctx, msg); err != nil {
		// одна повторная попытка, иначе постоянная ошибка SMTP держит очередь
		requeue := !d.Redelivered

		log.Error("failed to handle message", sl.Err(err), slog.Bool("requeue", requeue))

		if err := d.Nack(false, requeue); err != nil {
			log.Error("failed to nack message", sl.Err(err))
		}

		return
	}

	if err := d.Ack(false); err != nil {
		log.Error("failed to ack message", sl.Err(err))
	}
}

func (r *RabbitMQClient) Close() {
	_ = r.channel.Close()
	if r.conn != nil {
		_ = r.conn.Close()
	}
}
