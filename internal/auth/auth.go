package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"code_auth/internal/lib/code"
	"code_auth/internal/lib/jwt"
	sl "code_auth/internal/lib/logger"
	"code_auth/internal/mail"
	"code_auth/internal/models"
	"code_auth/internal/storage"

	"github.com/google/uuid"
)

const (
	MinPasswordLength = 6
	// MaxPasswordBytes предел bcrypt: более длинный пароль не захешировать.
	MaxPasswordBytes = 72
)

var (
	ErrWeakPassword    = errors.New("weak password")
	ErrPasswordTooLong = errors.New("password too long")
	ErrWrongPassword   = errors.New("wrong password")
	ErrWrongCode       = errors.New("wrong code")
	ErrConfirmation    = errors.New("confirmation failed")
	ErrUserExists      = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
)

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	codes       CodeStore
	mailer      Mailer
	hasher      PasswordHasher
	tokens      TokenIssuer
	codeTTL     time.Duration
	genCode     func() (int, error)
}

type UserSaver interface {
	SaveUser(ctx context.Context, email string, passHash []byte) (uid int64, err error)
	SetRefreshToken(ctx context.Context, userID int64, tokenHash string) error
}

type UserProvider interface {
	User(ctx context.Context, email string) (models.User, error)
}

type CodeStore interface {
	SaveCode(ctx context.Context, code models.TemporaryCode, ttl time.Duration) error
	ConsumeCode(ctx context.Context, id string) (models.TemporaryCode, error)
}

type Mailer interface {
	SendCode(ctx context.Context, address, code string) error
}

type PasswordHasher interface {
	Hash(password string) ([]byte, error)
	Compare(hash []byte, password string) bool
}

type TokenIssuer interface {
	Issue(userID int64) (jwt.TokenPair, error)
}

// Session результат успешного подтверждения: пользователь и свежая пара токенов.
type Session struct {
	User   models.User
	Tokens jwt.TokenPair
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	codes CodeStore,
	mailer Mailer,
	hasher PasswordHasher,
	tokens TokenIssuer,
	codeTTL time.Duration,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		codes:       codes,
		mailer:      mailer,
		hasher:      hasher,
		tokens:      tokens,
		codeTTL:     codeTTL,
		genCode:     code.Generate,
	}
}

// * Exists проверяет, зарегистрирован ли email. Побочных эффектов нет.
func (a *Auth) Exists(ctx context.Context, email string) (bool, error) {
	const op = "auth.Exists"

	_, err := a.usrProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return false, nil
		}

		a.log.Error("failed to get user", slog.String("op", op), sl.Err(err))

		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}

// * BeginVerification проверяет пароль (вход) или его длину (регистрация),
// затем создает временный код и отправляет его на email.
// Возвращает идентификатор кода, но не сам код.
func (a *Auth) BeginVerification(
	ctx context.Context,
	email, password string,
) (codeID string, registration bool, err error) {
	const op = "auth.BeginVerification"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.User(ctx, email)
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		registration = true

		if err := acceptable(password); err != nil {
			log.Info("password rejected on registration", sl.Err(err))
			return "", true, err
		}
	case err != nil:
		log.Error("failed to get user", sl.Err(err))
		return "", false, fmt.Errorf("%s: %w", op, err)
	default:
		if !a.hasher.Compare(user.PassHash, password) {
			log.Info("wrong password", slog.Int64("uid", user.ID))
			return "", false, ErrWrongPassword
		}
	}

	codeID, err = a.sendCode(ctx, email)
	if err != nil {
		log.Error("failed to send confirmation code", sl.Err(err))
		return "", registration, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("confirmation code sent", slog.Bool("registration", registration))

	return codeID, registration, nil
}

// * CheckPassword сверяет пароль существующего пользователя.
func (a *Auth) CheckPassword(ctx context.Context, email, password string) error {
	const op = "auth.CheckPassword"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("user not found")
			return ErrUserNotFound
		}

		log.Error("failed to get user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if !a.hasher.Compare(user.PassHash, password) {
		return ErrWrongPassword
	}

	return nil
}

// * ConfirmAndIssue погашает временный код и при совпадении выпускает токены.
// Код удаляется при любом исходе сравнения.
func (a *Auth) ConfirmAndIssue(
	ctx context.Context,
	submittedCode int,
	codeID, email, password string,
	registration bool,
) (Session, error) {
	const op = "auth.ConfirmAndIssue"

	log := a.log.With(slog.String("op", op))

	tc, err := a.codes.ConsumeCode(ctx, codeID)
	if err != nil {
		if errors.Is(err, storage.ErrCodeNotFound) {
			log.Info("temporary code not found")
			return Session{}, ErrConfirmation
		}

		log.Error("failed to consume temporary code", sl.Err(err))
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}

	if tc.Email != email {
		log.Warn("temporary code was sent to another address")
		return Session{}, ErrConfirmation
	}

	if tc.Code != submittedCode {
		log.Info("wrong confirmation code")
		return Session{}, ErrWrongCode
	}

	var user models.User
	if registration {
		user, err = a.register(ctx, email, password)
	} else {
		user, err = a.login(ctx, email, password)
	}
	if err != nil {
		return Session{}, err
	}

	tokens, err := a.tokens.Issue(user.ID)
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}

	user.RefreshTokenHash = jwt.HashToken(tokens.RefreshToken)

	if err := a.usrSaver.SetRefreshToken(ctx, user.ID, user.RefreshTokenHash); err != nil {
		log.Error("failed to save refresh token", sl.Err(err))
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user confirmed", slog.Int64("uid", user.ID), slog.Bool("registration", registration))

	return Session{User: user, Tokens: tokens}, nil
}

func (a *Auth) register(ctx context.Context, email, password string) (models.User, error) {
	const op = "auth.register"

	log := a.log.With(slog.String("op", op))

	if err := acceptable(password); err != nil {
		return models.User{}, err
	}

	passHash, err := a.hasher.Hash(password)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	id, err := a.usrSaver.SaveUser(ctx, email, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return models.User{}, ErrUserExists
		}

		log.Error("failed to save user", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.User{ID: id, Email: email, PassHash: passHash}, nil
}

func (a *Auth) login(ctx context.Context, email, password string) (models.User, error) {
	const op = "auth.login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return models.User{}, ErrConfirmation
		}

		log.Error("failed to get user", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if !a.hasher.Compare(user.PassHash, password) {
		return models.User{}, ErrWrongPassword
	}

	return user, nil
}

func (a *Auth) sendCode(ctx context.Context, email string) (string, error) {
	value, err := a.genCode()
	if err != nil {
		return "", err
	}

	tc := models.TemporaryCode{
		ID:    uuid.NewString(),
		Code:  value,
		Email: email,
	}

	if err := a.codes.SaveCode(ctx, tc, a.codeTTL); err != nil {
		return "", err
	}

	if err := a.mailer.SendCode(ctx, email, mail.FormatCode(value)); err != nil {
		return "", err
	}

	return tc.ID, nil
}

// acceptable проверяет пароль новой учетной записи: не короче MinPasswordLength символов
// и не длиннее MaxPasswordBytes байт.
func acceptable(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrWeakPassword
	}

	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}

	return nil
}
