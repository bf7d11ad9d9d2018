package jwt

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID int64  `json:"uid"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Manager подписывает и проверяет пары токенов.
// Access и refresh подписываются разными секретами.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func New(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithClock возвращает копию менеджера с другим источником времени. Исходный не меняется.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	c := *m
	c.now = now

	return &c
}

// * Issue выпускает access и refresh токены для пользователя.
func (m *Manager) Issue(userID int64) (TokenPair, error) {
	const op = "jwt.Issue"

	now := m.now()

	accessToken, err := m.sign(userID, typeAccess, now, m.accessTTL, m.accessSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := m.sign(userID, typeRefresh, now, m.refreshTTL, m.refreshSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (m *Manager) VerifyAccess(token string) (Claims, error) {
	return m.parse(token, typeAccess, m.accessSecret)
}

func (m *Manager) VerifyRefresh(token string) (Claims, error) {
	return m.parse(token, typeRefresh, m.refreshSecret)
}

func (m *Manager) sign(userID int64, typ string, now time.Time, ttl time.Duration, secret []byte) (string, error) {
	claims := Claims{
		UserID: userID,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(secret)
}

func (m *Manager) parse(tokenStr, typ string, secret []byte) (Claims, error) {
	const op = "jwt.parse"

	var claims Claims

	parsed, err := jwt.ParseWithClaims(
		tokenStr,
		&claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}

	if !parsed.Valid {
		return Claims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if claims.Type != typ {
		return Claims{}, fmt.Errorf("%s: %w: unexpected token type %q", op, ErrInvalidToken, claims.Type)
	}

	if claims.UserID <= 0 {
		return Claims{}, fmt.Errorf("%s: %w: missing user id", op, ErrInvalidToken)
	}

	return claims, nil
}

// * HashToken создает SHA256 хеш токена для хранения в базе.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
