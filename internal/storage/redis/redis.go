package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"code_auth/internal/models"
	"code_auth/internal/storage"

	"github.com/redis/go-redis/v9"
)

const codeKeyPrefix = "code:"

type RedisRepo struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisRepo{
		client: client,
	}, nil
}

// * SaveCode сохраняет временный код с ограниченным временем жизни.
func (r *RedisRepo) SaveCode(ctx context.Context, code models.TemporaryCode, ttl time.Duration) error {
	const op = "storage.redis.SaveCode"

	key := codeKey(code.ID)

	data := map[string]interface{}{
		"code":       code.Code,
		"email":      code.Email,
		"created_at": time.Now().Unix(),
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, data)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * ConsumeCode читает и удаляет код в одной транзакции (MULTI/EXEC).
// Повторный вызов с тем же id возвращает storage.ErrCodeNotFound.
func (r *RedisRepo) ConsumeCode(ctx context.Context, id string) (models.TemporaryCode, error) {
	const op = "storage.redis.ConsumeCode"

	key := codeKey(id)

	var get *redis.MapStringStringCmd

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGetAll(ctx, key)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return models.TemporaryCode{}, fmt.Errorf("%s: %w", op, err)
	}

	fields := get.Val()
	if len(fields) == 0 {
		return models.TemporaryCode{}, storage.ErrCodeNotFound
	}

	code, err := strconv.Atoi(fields["code"])
	if err != nil {
		return models.TemporaryCode{}, fmt.Errorf("%s: malformed code record: %w", op, err)
	}

	return models.TemporaryCode{
		ID:    id,
		Code:  code,
		Email: fields["email"],
	}, nil
}

// * Close закрывает соединение с базой данных.
func (r *RedisRepo) Close() {
	r.client.Close()
}

func codeKey(id string) string {
	return codeKeyPrefix + id
}
