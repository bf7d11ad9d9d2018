package storage

import "errors"

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrCodeNotFound = errors.New("temporary code not found")
	// ErrStaleRefreshToken сохраненный refresh токен уже не тот, что ожидался.
	ErrStaleRefreshToken = errors.New("stale refresh token")
)
