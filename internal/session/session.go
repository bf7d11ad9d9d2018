package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"code_auth/internal/lib/jwt"
	sl "code_auth/internal/lib/logger"
	"code_auth/internal/models"
	"code_auth/internal/storage"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserProvider interface {
	UserByID(ctx context.Context, id int64) (models.User, error)
}

// TokenRotator меняет сохраненный хеш refresh токена, только если там все еще oldHash.
type TokenRotator interface {
	RotateRefreshToken(ctx context.Context, userID int64, oldHash, newHash string) error
}

type TokenManager interface {
	Issue(userID int64) (jwt.TokenPair, error)
	VerifyRefresh(token string) (jwt.Claims, error)
}

type Refresher struct {
	log          *slog.Logger
	usrProvider  UserProvider
	tokenRotator TokenRotator
	tokens       TokenManager
}

// Result ответ на обновление сессии. При Verified == false остальные поля пустые.
type Result struct {
	Verified bool
	User     models.User
	Tokens   jwt.TokenPair
}

func New(
	log *slog.Logger,
	userProvider UserProvider,
	tokenRotator TokenRotator,
	tokens TokenManager,
) *Refresher {
	return &Refresher{
		log:          log,
		usrProvider:  userProvider,
		tokenRotator: tokenRotator,
		tokens:       tokens,
	}
}

// * Refresh проверяет refresh токен и ротирует пару.
// Принимается только токен, совпадающий с сохраненным у пользователя.
func (s *Refresher) Refresh(ctx context.Context, presented string) (Result, error) {
	const op = "session.Refresh"

	log := s.log.With(slog.String("op", op))

	if presented == "" {
		return Result{}, nil
	}

	user, err := s.current(ctx, log, presented)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return Result{}, nil
		}

		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	tokens, err := s.tokens.Issue(user.ID)
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	newHash := jwt.HashToken(tokens.RefreshToken)

	err = s.tokenRotator.RotateRefreshToken(ctx, user.ID, user.RefreshTokenHash, newHash)
	if err != nil {
		if errors.Is(err, storage.ErrStaleRefreshToken) {
			log.Warn("refresh token rotated concurrently", slog.Int64("uid", user.ID))
			return Result{}, nil
		}

		log.Error("failed to rotate refresh token", sl.Err(err))
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	user.RefreshTokenHash = newHash

	log.Info("refresh successful", slog.Int64("uid", user.ID))

	return Result{Verified: true, User: user, Tokens: tokens}, nil
}

// * Logout инвалидирует текущий refresh токен пользователя.
func (s *Refresher) Logout(ctx context.Context, presented string) error {
	const op = "session.Logout"

	log := s.log.With(slog.String("op", op))

	if presented == "" {
		return ErrInvalidCredentials
	}

	user, err := s.current(ctx, log, presented)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return err
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.tokenRotator.RotateRefreshToken(ctx, user.ID, user.RefreshTokenHash, ""); err != nil {
		if errors.Is(err, storage.ErrStaleRefreshToken) {
			log.Warn("refresh token rotated concurrently", slog.Int64("uid", user.ID))
			return ErrInvalidCredentials
		}

		log.Error("failed to delete refresh token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("logout successful", slog.Int64("uid", user.ID))

	return nil
}

// current возвращает владельца токена, если токен валиден и совпадает с сохраненным.
func (s *Refresher) current(ctx context.Context, log *slog.Logger, presented string) (models.User, error) {
	claims, err := s.tokens.VerifyRefresh(presented)
	if err != nil {
		log.Info("invalid refresh token", sl.Err(err))
		return models.User{}, ErrInvalidCredentials
	}

	user, err := s.usrProvider.UserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("refresh token owner not found", slog.Int64("uid", claims.UserID))
			return models.User{}, ErrInvalidCredentials
		}

		log.Error("failed to load user", sl.Err(err))
		return models.User{}, err
	}

	hash := jwt.HashToken(presented)
	if user.RefreshTokenHash == "" ||
		subtle.ConstantTimeCompare([]byte(hash), []byte(user.RefreshTokenHash)) != 1 {
		log.Warn("stale refresh token presented", slog.Int64("uid", user.ID))
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}
