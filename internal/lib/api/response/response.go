package response

import (
	"code_auth/internal/models"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Status string   `json:"status"`
	Error  string   `json:"error,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// Сообщения, которые показываются пользователю как есть.
const (
	MsgWrongPassword      = "Wrong password. Try again"
	MsgIncorrectEmail     = "Incorrect email address"
	MsgWeakPassword       = "Password must be at least 6 characters long"
	MsgPasswordTooLong    = "Password must be at most 72 bytes long"
	MsgPasswordNotEntered = "Enter password"
	MsgPasswordsMismatch  = "Passwords do not match"
	MsgConfirmationError  = "Failed to confirm. Try again"
	MsgWrongCode          = "Wrong code"
	MsgUserExists         = "User with this email already exists"
	MsgUserNotFound       = "User not found"
	MsgInvalidRequest     = "Failed to decode request"
	MsgUnauthorized       = "Invalid or expired token"
	MsgOperationFailed    = "Operation failed. Try again"

	MsgSuccessRegistration = "Registration successful!"
	MsgSuccessLogin        = "Login successful!"
	MsgMailHasBeenSent     = "A confirmation code has been sent to your email"
)

func OK() Response {
	return Response{
		Status: StatusOK,
	}
}

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// * Errors ответ со списком сообщений для пользователя.
func Errors(msgs ...string) Response {
	return Response{
		Status: StatusError,
		Errors: msgs,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var msgs []string

	for _, err := range errs {
		msgs = append(msgs, fieldMessage(err))
	}

	return Errors(msgs...)
}

func fieldMessage(err validator.FieldError) string {
	switch err.Field() {
	case "Email":
		return MsgIncorrectEmail
	case "Password":
		if err.Tag() == "max" {
			return MsgPasswordTooLong
		}
		return MsgPasswordNotEntered
	case "RepeatPassword":
		return MsgPasswordsMismatch
	case "Code", "CodeID":
		return MsgConfirmationError
	default:
		return "field " + err.Field() + " is not valid"
	}
}

type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

func UserView(u models.User) *User {
	return &User{
		ID:    u.ID,
		Email: u.Email,
	}
}
