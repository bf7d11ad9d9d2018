package mail

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	PurposeConfirmation = "confirmation"

	ConfirmationSubject = "Authorization confirmation"
)

// ErrDelivery оборачивает любую ошибку отправки кода.
var ErrDelivery = errors.New("mail delivery failed")

func FormatCode(code int) string {
	return strconv.Itoa(code)
}

// * ConfirmationBody формирует HTML письма с кодом подтверждения.
func ConfirmationBody(code string) string {
	return fmt.Sprintf(`<div><h1>Your confirmation code %s</h1></div>`, code)
}
