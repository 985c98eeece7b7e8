package auth_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bicoltravel/btg-cli/internal/api"
	"github.com/bicoltravel/btg-cli/internal/auth"
	"github.com/bicoltravel/btg-cli/internal/credstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRefresher is a scripted refresh endpoint
type fakeRefresher struct {
	calls       atomic.Int32
	RefreshFunc func(ctx context.Context, refreshToken string) (*api.TokenResponse, error)
}

func (f *fakeRefresher) RefreshTokens(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
	f.calls.Add(1)
	if f.RefreshFunc != nil {
		return f.RefreshFunc(ctx, refreshToken)
	}
	return &api.TokenResponse{Access: "A2"}, nil
}

// flakyStore wraps a MemoryStore and fails the selected operations
type flakyStore struct {
	*credstore.MemoryStore
	failGet    bool
	failSet    bool
	failDelete bool
}

var errDisk = errors.New("disk unavailable")

func (s *flakyStore) Get(ctx context.Context, key string) (string, error) {
	if s.failGet {
		return "", &credstore.StorageError{Op: "get", Key: key, Err: errDisk}
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key, value string) error {
	if s.failSet {
		return &credstore.StorageError{Op: "set", Key: key, Err: errDisk}
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *flakyStore) Delete(ctx context.Context, key string) error {
	if s.failDelete {
		return &credstore.StorageError{Op: "delete", Key: key, Err: errDisk}
	}
	return s.MemoryStore.Delete(ctx, key)
}

func seededStore(t *testing.T, values map[string]string) *credstore.MemoryStore {
	t.Helper()
	store := credstore.NewMemoryStore()
	for k, v := range values {
		require.NoError(t, store.Set(context.Background(), k, v))
	}
	return store
}

func storedValue(t *testing.T, store credstore.Store, key string) (string, bool) {
	t.Helper()
	v, err := store.Get(context.Background(), key)
	if errors.Is(err, credstore.ErrNotFound) {
		return "", false
	}
	require.NoError(t, err)
	return v, true
}

func rejected(message string) error {
	return &api.APIError{StatusCode: http.StatusUnauthorized, Message: message}
}

func TestTokenAuthority_Bootstrap(t *testing.T) {
	tests := []struct {
		name     string
		stored   map[string]string
		wantPair *auth.TokenPair
	}{
		{
			name:     "nothing stored",
			stored:   map[string]string{},
			wantPair: nil,
		},
		{
			name:     "full pair",
			stored:   map[string]string{credstore.KeyAccessToken: "A1", credstore.KeyRefreshToken: "R1"},
			wantPair: &auth.TokenPair{Access: "A1", Refresh: "R1"},
		},
		{
			name:     "access without refresh",
			stored:   map[string]string{credstore.KeyAccessToken: "A1"},
			wantPair: &auth.TokenPair{Access: "A1"},
		},
		{
			name:     "refresh without access",
			stored:   map[string]string{credstore.KeyRefreshToken: "R1"},
			wantPair: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authority := auth.NewTokenAuthority(seededStore(t, tt.stored), &fakeRefresher{}, zerolog.Nop())

			pair, err := authority.Bootstrap(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantPair, pair)

			access, ok := authority.CurrentAccess()
			if tt.wantPair == nil {
				assert.False(t, ok)
				return
			}
			assert.True(t, ok)
			assert.Equal(t, tt.wantPair.Access, access)
		})
	}
}

func TestTokenAuthority_BootstrapStorageFailure(t *testing.T) {
	store := &flakyStore{MemoryStore: credstore.NewMemoryStore(), failGet: true}
	authority := auth.NewTokenAuthority(store, &fakeRefresher{}, zerolog.Nop())

	_, err := authority.Bootstrap(context.Background())
	require.ErrorIs(t, err, auth.ErrTransient)
	assert.ErrorIs(t, err, errDisk)
}

func TestTokenAuthority_AdoptPersists(t *testing.T) {
	store := credstore.NewMemoryStore()
	authority := auth.NewTokenAuthority(store, &fakeRefresher{}, zerolog.Nop())

	require.NoError(t, authority.Adopt(context.Background(), auth.TokenPair{Access: "A1", Refresh: "R1"}))

	access, _ := authority.CurrentAccess()
	refresh, _ := authority.CurrentRefresh()
	assert.Equal(t, "A1", access)
	assert.Equal(t, "R1", refresh)

	v, _ := storedValue(t, store, credstore.KeyAccessToken)
	assert.Equal(t, "A1", v)
	v, _ = storedValue(t, store, credstore.KeyRefreshToken)
	assert.Equal(t, "R1", v)
}

func TestTokenAuthority_AdoptKeepsMemoryWhenPersistFails(t *testing.T) {
	store := &flakyStore{MemoryStore: credstore.NewMemoryStore(), failSet: true}
	authority := auth.NewTokenAuthority(store, &fakeRefresher{}, zerolog.Nop())

	err := authority.Adopt(context.Background(), auth.TokenPair{Access: "A1", Refresh: "R1"})
	require.ErrorIs(t, err, auth.ErrStorageFailure)

	access, ok := authority.CurrentAccess()
	assert.True(t, ok)
	assert.Equal(t, "A1", access)
}

func TestTokenAuthority_ClearIsIdempotentAndAlwaysClearsMemory(t *testing.T) {
	store := &flakyStore{MemoryStore: seededStore(t, map[string]string{
		credstore.KeyAccessToken:  "A1",
		credstore.KeyRefreshToken: "R1",
	})}
	authority := auth.NewTokenAuthority(store, &fakeRefresher{}, zerolog.Nop())
	_, err := authority.Bootstrap(context.Background())
	require.NoError(t, err)

	store.failDelete = true
	authority.Clear(context.Background())

	_, ok := authority.CurrentAccess()
	assert.False(t, ok)

	store.failDelete = false
	authority.Clear(context.Background())
	authority.Clear(context.Background())

	_, ok = storedValue(t, store, credstore.KeyAccessToken)
	assert.False(t, ok)
	_, ok = storedValue(t, store, credstore.KeyRefreshToken)
	assert.False(t, ok)
}

func TestTokenAuthority_RenewSingleFlight(t *testing.T) {
	release := make(chan struct{})
	refresher := &fakeRefresher{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
			assert.Equal(t, "R1", refreshToken)
			<-release
			return &api.TokenResponse{Access: "A2", Refresh: "R2"}, nil
		},
	}
	store := credstore.NewMemoryStore()
	authority := auth.NewTokenAuthority(store, refresher, zerolog.Nop())
	require.NoError(t, authority.Adopt(context.Background(), auth.TokenPair{Access: "A1", Refresh: "R1"}))

	const callers = 8
	var (
		wg      sync.WaitGroup
		results [callers]auth.TokenPair
		errs    [callers]error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = authority.Renew(context.Background())
		}(i)
	}

	// Let every caller join the in-flight renewal before it resolves
	require.Eventually(t, func() bool { return refresher.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), refresher.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, auth.TokenPair{Access: "A2", Refresh: "R2"}, results[i])
	}

	v, _ := storedValue(t, store, credstore.KeyAccessToken)
	assert.Equal(t, "A2", v)
	v, _ = storedValue(t, store, credstore.KeyRefreshToken)
	assert.Equal(t, "R2", v)
}

func TestTokenAuthority_RenewKeepsRefreshWhenNotRotated(t *testing.T) {
	authority := auth.NewTokenAuthority(credstore.NewMemoryStore(), &fakeRefresher{}, zerolog.Nop())
	require.NoError(t, authority.Adopt(context.Background(), auth.TokenPair{Access: "A1", Refresh: "R1"}))

	var renewed []auth.TokenPair
	authority.OnRenewed(func(pair auth.TokenPair) { renewed = append(renewed, pair) })

	pair, err := authority.Renew(context.Background())
	require.NoError(t, err)
	assert.Equal(t, auth.TokenPair{Access: "A2", Refresh: "R1"}, pair)
	assert.Equal(t, []auth.TokenPair{pair}, renewed)
}

func TestTokenAuthority_RenewRejectedClearsAndNotifies(t *testing.T) {
	refresher := &fakeRefresher{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
			return nil, rejected("Token is invalid or expired")
		},
	}
	store := credstore.NewMemoryStore()
	authority := auth.NewTokenAuthority(store, refresher, zerolog.Nop())
	require.NoError(t, authority.Adopt(context.Background(), auth.TokenPair{Access: "A1", Refresh: "R1"}))

	var notified atomic.Int32
	authority.OnExpired(func() { notified.Add(1) })

	_, err := authority.Renew(context.Background())
	require.ErrorIs(t, err, auth.ErrSessionExpired)
	assert.Equal(t, "Token is invalid or expired", auth.UserMessage(err))
	assert.Equal(t, int32(1), notified.Load())

	_, ok := authority.CurrentAccess()
	assert.False(t, ok)
	_, ok = storedValue(t, store, credstore.KeyAccessToken)
	assert.False(t, ok)
	_, ok = storedValue(t, store, credstore.KeyRefreshToken)
	assert.False(t, ok)

	// No retry of a rejected refresh token
	assert.Equal(t, int32(1), refresher.calls.Load())
}

func TestTokenAuthority_RenewWithoutRefreshToken(t *testing.T) {
	refresher := &fakeRefresher{}
	store := seededStore(t, map[string]string{credstore.KeyAccessToken: "A1"})
	authority := auth.NewTokenAuthority(store, refresher, zerolog.Nop())
	_, err := authority.Bootstrap(context.Background())
	require.NoError(t, err)

	_, err = authority.Renew(context.Background())
	require.ErrorIs(t, err, auth.ErrSessionExpired)
	assert.ErrorIs(t, err, auth.ErrNoRefreshToken)
	assert.Equal(t, int32(0), refresher.calls.Load())

	_, ok := storedValue(t, store, credstore.KeyAccessToken)
	assert.False(t, ok)
}

func TestTokenAuthority_RenewUnavailableKeepsTokens(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "network failure", err: &api.NetworkError{Op: "POST /api/auth/token/refresh/", Err: errors.New("connection refused")}},
		{name: "bad gateway", err: &api.APIError{StatusCode: http.StatusBadGateway, Message: "Bad Gateway"}},
		{name: "throttled", err: &api.APIError{StatusCode: http.StatusTooManyRequests, Message: "Request was throttled."}},
		{name: "request timeout", err: &api.APIError{StatusCode: http.StatusRequestTimeout, Message: "request failed with status 408"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refresher := &fakeRefresher{
				RefreshFunc: func(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
					return nil, tt.err
				},
			}
			store := credstore.NewMemoryStore()
			authority := auth.NewTokenAuthority(store, refresher, zerolog.Nop())
			require.NoError(t, authority.Adopt(context.Background(), auth.TokenPair{Access: "A1", Refresh: "R1"}))
			var expired atomic.Int32
			authority.OnExpired(func() { expired.Add(1) })

			_, err := authority.Renew(context.Background())
			require.ErrorIs(t, err, auth.ErrTransient)
			assert.True(t, auth.Retryable(err))
			assert.Zero(t, expired.Load())

			access, ok := authority.CurrentAccess()
			assert.True(t, ok)
			assert.Equal(t, "A1", access)
			v, _ := storedValue(t, store, credstore.KeyRefreshToken)
			assert.Equal(t, "R1", v)
		})
	}
}

func TestTokenAuthority_ClearDuringRenewalWins(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	refresher := &fakeRefresher{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
			close(started)
			<-release
			return &api.TokenResponse{Access: "A2", Refresh: "R2"}, nil
		},
	}
	store := credstore.NewMemoryStore()
	authority := auth.NewTokenAuthority(store, refresher, zerolog.Nop())
	require.NoError(t, authority.Adopt(context.Background(), auth.TokenPair{Access: "A1", Refresh: "R1"}))

	done := make(chan error, 1)
	go func() {
		_, err := authority.Renew(context.Background())
		done <- err
	}()

	<-started
	authority.Clear(context.Background())
	close(release)

	require.ErrorIs(t, <-done, auth.ErrSessionExpired)

	_, ok := authority.CurrentAccess()
	assert.False(t, ok)
	_, ok = storedValue(t, store, credstore.KeyAccessToken)
	assert.False(t, ok)
}

func TestTokenAuthority_RenewWaiterCanGiveUp(t *testing.T) {
	release := make(chan struct{})
	refresher := &fakeRefresher{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
			<-release
			return &api.TokenResponse{Access: "A2"}, nil
		},
	}
	authority := auth.NewTokenAuthority(credstore.NewMemoryStore(), refresher, zerolog.Nop())
	require.NoError(t, authority.Adopt(context.Background(), auth.TokenPair{Access: "A1", Refresh: "R1"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := authority.Renew(ctx)
	require.ErrorIs(t, err, auth.ErrTransient)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)

	// The shared renewal still completes for later readers
	require.Eventually(t, func() bool {
		access, _ := authority.CurrentAccess()
		return access == "A2"
	}, time.Second, time.Millisecond)
}
