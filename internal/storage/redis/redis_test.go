package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"code_auth/internal/models"
	"code_auth/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*RedisRepo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	repo, err := New(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	return repo, mr
}

func TestSaveAndConsumeCode(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	code := models.TemporaryCode{ID: "abc", Code: 12345, Email: "new@x.com"}
	require.NoError(t, repo.SaveCode(ctx, code, time.Minute))

	assert.True(t, mr.Exists("code:abc"))
	assert.Equal(t, time.Minute, mr.TTL("code:abc"))

	got, err := repo.ConsumeCode(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, code, got)

	assert.False(t, mr.Exists("code:abc"))
}

func TestConsumeCode_SecondCallFails(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveCode(ctx, models.TemporaryCode{ID: "once", Code: 54321}, time.Minute))

	_, err := repo.ConsumeCode(ctx, "once")
	require.NoError(t, err)

	_, err = repo.ConsumeCode(ctx, "once")
	assert.ErrorIs(t, err, storage.ErrCodeNotFound)
}

func TestConsumeCode_Unknown(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.ConsumeCode(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrCodeNotFound)
}

func TestConsumeCode_Expired(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveCode(ctx, models.TemporaryCode{ID: "old", Code: 11111}, time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err := repo.ConsumeCode(ctx, "old")
	assert.ErrorIs(t, err, storage.ErrCodeNotFound)
}

func TestConsumeCode_ConcurrentSingleWinner(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveCode(ctx, models.TemporaryCode{ID: "race", Code: 22222}, time.Minute))

	const workers = 10

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.ConsumeCode(ctx, "race"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestNew_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
