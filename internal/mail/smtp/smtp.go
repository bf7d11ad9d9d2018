package smtp

import (
	"context"
	"fmt"

	"code_auth/internal/mail"

	"gopkg.in/gomail.v2"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	from   string
	dialer dialer
}

func New(host string, port int, username, password string) *Mailer {
	return &Mailer{
		from:   username,
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

func (m *Mailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.from)
	msg.SetHeader("Subject", subject)

	msg.SetBody("text/html", body)

	return m.dialer.DialAndSend(msg)
}

// * SendCode синхронно отправляет код подтверждения по SMTP.
// gomail не принимает контекст, поэтому по истечении ctx метод возвращает ошибку,
// не дожидаясь медленного сервера. Письмо при этом еще может уйти.
func (m *Mailer) SendCode(ctx context.Context, address, code string) error {
	const op = "mail.smtp.SendCode"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w: %w", op, mail.ErrDelivery, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- m.Send(address, mail.ConfirmationSubject, mail.ConfirmationBody(code))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%s: %w: %w", op, mail.ErrDelivery, err)
		}
	case <-ctx.Done():
		return fmt.Errorf("%s: %w: %w", op, mail.ErrDelivery, ctx.Err())
	}

	return nil
}
