package token

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"saj-gateway/internal/database"
	"saj-gateway/internal/models"
	cache "saj-gateway/internal/redis"
	"saj-gateway/internal/repositories"
	"saj-gateway/internal/repositories/interfaces"
	"saj-gateway/internal/saj"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeUpstream struct {
	calls   atomic.Int32
	token   string
	expires int64
	err     error
	delay   time.Duration
}

func (f *fakeUpstream) AccessToken(ctx context.Context) (*saj.TokenData, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &saj.TokenData{AccessToken: f.token, Expires: f.expires}, nil
}

// brokenStore fails every call, as a degraded database would.
type brokenStore struct{}

var errDown = errors.New("database down")

func (brokenStore) FindValid(context.Context, time.Time) (*models.AccessToken, error) {
	return nil, errDown
}

func (brokenStore) FindLatestActive(context.Context) (*models.AccessToken, error) {
	return nil, errDown
}

func (brokenStore) ReplaceActive(context.Context, *models.AccessToken) error {
	return errDown
}

var _ interfaces.TokenRepositoryInterface = brokenStore{}

func setupStore(t *testing.T) (*gorm.DB, interfaces.TokenRepositoryInterface) {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return db, repositories.NewTokenRepository(db, database.NewUnitOfWork(db))
}

func activeRows(t *testing.T, db *gorm.DB) []models.AccessToken {
	t.Helper()
	var rows []models.AccessToken
	require.NoError(t, db.Where("is_active = ?", true).Find(&rows).Error)
	return rows
}

func TestValidTokenEmptyStore(t *testing.T) {
	db, store := setupStore(t)
	upstream := &fakeUpstream{token: "fresh-token", expires: 3600}
	provider := NewProvider(store, upstream, nil, 0, zap.NewNop())
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	provider.now = func() time.Time { return fixed }

	token, err := provider.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.EqualValues(t, 1, upstream.calls.Load())

	rows := activeRows(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, "fresh-token", rows[0].Token)
	assert.True(t, rows[0].ExpiresAt.Equal(fixed.Add(time.Hour)))
}

func TestValidTokenCacheHit(t *testing.T) {
	_, store := setupStore(t)
	require.NoError(t, store.ReplaceActive(context.Background(), &models.AccessToken{
		Token:     "cached-token",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}))
	upstream := &fakeUpstream{token: "fresh-token", expires: 3600}
	provider := NewProvider(store, upstream, nil, 0, zap.NewNop())

	token, err := provider.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached-token", token)
	assert.Zero(t, upstream.calls.Load())
}

func TestValidTokenExpiredRowRefreshes(t *testing.T) {
	db, store := setupStore(t)
	require.NoError(t, store.ReplaceActive(context.Background(), &models.AccessToken{
		Token:     "stale-token",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}))
	upstream := &fakeUpstream{token: "fresh-token", expires: 3600}
	provider := NewProvider(store, upstream, nil, 0, zap.NewNop())

	token, err := provider.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.EqualValues(t, 1, upstream.calls.Load())

	rows := activeRows(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, "fresh-token", rows[0].Token)
}

func TestValidTokenDefaultLifetime(t *testing.T) {
	db, store := setupStore(t)
	provider := NewProvider(store, &fakeUpstream{token: "fresh-token"}, nil, 0, zap.NewNop())
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	provider.now = func() time.Time { return fixed }

	_, err := provider.ValidToken(context.Background())
	require.NoError(t, err)

	rows := activeRows(t, db)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].ExpiresAt.Equal(fixed.Add(DefaultLifetime)))
}

func TestValidTokenSurvivesStoreFailure(t *testing.T) {
	upstream := &fakeUpstream{token: "fresh-token", expires: 3600}
	provider := NewProvider(brokenStore{}, upstream, nil, 0, zap.NewNop())

	token, err := provider.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.EqualValues(t, 1, upstream.calls.Load())
}

func TestValidTokenUpstreamFailures(t *testing.T) {
	cases := []struct {
		name     string
		upstream *fakeUpstream
		code     int
	}{
		{"application error", &fakeUpstream{err: &saj.APIError{Op: "access_token", Code: 200010, Msg: "bad secret"}}, 200010},
		{"transport error", &fakeUpstream{err: &saj.TransportError{Op: "access_token", Msg: "timeout"}}, 0},
		{"empty token", &fakeUpstream{token: ""}, saj.SuccessCode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, store := setupStore(t)
			provider := NewProvider(store, tc.upstream, nil, 0, zap.NewNop())

			_, err := provider.ValidToken(context.Background())
			var authErr *AuthError
			require.True(t, errors.As(err, &authErr))
			assert.Equal(t, tc.code, authErr.Code)
			assert.Empty(t, activeRows(t, db))
		})
	}
}

func TestValidTokenConcurrentMissesShareOneFetch(t *testing.T) {
	_, store := setupStore(t)
	upstream := &fakeUpstream{token: "fresh-token", expires: 3600, delay: 20 * time.Millisecond}
	provider := NewProvider(store, upstream, nil, 0, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := provider.ValidToken(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "fresh-token", token)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, upstream.calls.Load())
}

func TestValidTokenFrontCache(t *testing.T) {
	mr := miniredis.RunT(t)
	front := cache.NewRedisClientFrom(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { front.Close() })

	_, store := setupStore(t)
	upstream := &fakeUpstream{token: "fresh-token", expires: 3600}
	provider := NewProvider(store, upstream, front, 10*time.Minute, zap.NewNop())

	_, err := provider.ValidToken(context.Background())
	require.NoError(t, err)

	cached, err := mr.Get(cache.AccessTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", cached)
	assert.Equal(t, 10*time.Minute, mr.TTL(cache.AccessTokenKey))

	// A front hit never reaches the store or the vendor.
	provider.store = brokenStore{}
	token, err := provider.ValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.EqualValues(t, 1, upstream.calls.Load())
}

func TestRefreshAlwaysCallsUpstream(t *testing.T) {
	db, store := setupStore(t)
	upstream := &fakeUpstream{token: "fresh-token", expires: 3600}
	provider := NewProvider(store, upstream, nil, 0, zap.NewNop())

	for i := 0; i < 2; i++ {
		data, err := provider.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "fresh-token", data.AccessToken)
	}
	assert.EqualValues(t, 2, upstream.calls.Load())
	assert.Len(t, activeRows(t, db), 1)
}

func TestStatus(t *testing.T) {
	_, store := setupStore(t)
	provider := NewProvider(store, &fakeUpstream{}, nil, 0, zap.NewNop())
	ctx := context.Background()

	status, err := provider.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.HasToken)
	assert.True(t, status.IsExpired)
	assert.Equal(t, "No cached token found", status.Message)

	now := time.Now().UTC()
	provider.now = func() time.Time { return now }
	require.NoError(t, store.ReplaceActive(ctx, &models.AccessToken{
		Token:     "abcdefghijklmnopqrstuvwxyz",
		ExpiresAt: now.Add(90 * time.Second),
	}))

	status, err = provider.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.HasToken)
	assert.False(t, status.IsExpired)
	assert.EqualValues(t, 90, status.TimeUntilExpiry)
	assert.Equal(t, "abcdefghijklmnopqrst...", status.TokenPreview)

	_, err = NewProvider(brokenStore{}, &fakeUpstream{}, nil, 0, zap.NewNop()).Status(ctx)
	assert.ErrorIs(t, err, errDown)
}
