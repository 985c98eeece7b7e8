// Package auth owns the bearer credentials of the CLI: it keeps the
// access/refresh token pair, renews it against the refresh endpoint and
// resolves the identity behind an access token.
package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/bicoltravel/btg-cli/internal/api"
	"github.com/bicoltravel/btg-cli/internal/credstore"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// TokenPair is the access/refresh credential pair.
// Tokens are opaque; nothing here decodes their claims.
type TokenPair struct {
	Access  string
	Refresh string
}

// Refresher calls the token refresh endpoint
type Refresher interface {
	RefreshTokens(ctx context.Context, refreshToken string) (*api.TokenResponse, error)
}

const renewKey = "renew"

// TokenAuthority is the only writer of the token pair.
// At most one renewal is in flight; concurrent Renew calls share it.
type TokenAuthority struct {
	store     credstore.Store
	refresher Refresher
	logger    zerolog.Logger

	// mu guards the in-memory fields
	mu         sync.RWMutex
	pair       TokenPair
	generation uint64
	onExpired  []func()
	onRenewed  []func(TokenPair)

	// writeMu serializes mutations that span memory and the store
	writeMu sync.Mutex
	group   singleflight.Group
}

// NewTokenAuthority creates a token authority with an empty pair
func NewTokenAuthority(store credstore.Store, refresher Refresher, logger zerolog.Logger) *TokenAuthority {
	return &TokenAuthority{
		store:     store,
		refresher: refresher,
		logger:    logger.With().Str("component", "token_authority").Logger(),
	}
}

// CurrentAccess returns the in-memory access token
func (a *TokenAuthority) CurrentAccess() (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pair.Access, a.pair.Access != ""
}

// CurrentRefresh returns the in-memory refresh token
func (a *TokenAuthority) CurrentRefresh() (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pair.Refresh, a.pair.Refresh != ""
}

// OnExpired registers fn to run after a failed renewal has cleared the pair
func (a *TokenAuthority) OnExpired(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onExpired = append(a.onExpired, fn)
}

// OnRenewed registers fn to run after a renewal has installed a new pair
func (a *TokenAuthority) OnRenewed(fn func(TokenPair)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onRenewed = append(a.onRenewed, fn)
}

// Bootstrap loads the stored pair into memory.
// It returns nil when no access token is stored. A pair without a refresh
// token is returned as is; it cannot be renewed later.
func (a *TokenAuthority) Bootstrap(ctx context.Context) (*TokenPair, error) {
	a.mu.RLock()
	if a.pair.Access != "" {
		pair := a.pair
		a.mu.RUnlock()
		return &pair, nil
	}
	gen := a.generation
	a.mu.RUnlock()

	access, err := a.store.Get(ctx, credstore.KeyAccessToken)
	if errors.Is(err, credstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, newError(ErrTransient, "", err)
	}

	refresh, err := a.store.Get(ctx, credstore.KeyRefreshToken)
	if err != nil && !errors.Is(err, credstore.ErrNotFound) {
		return nil, newError(ErrTransient, "", err)
	}
	if refresh == "" {
		a.logger.Warn().Msg("stored access token has no refresh token; session cannot be renewed")
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Adopted or cleared while we were reading
	if a.generation != gen {
		if a.pair.Access == "" {
			return nil, nil
		}
		pair := a.pair
		return &pair, nil
	}

	a.pair = TokenPair{Access: access, Refresh: refresh}
	pair := a.pair
	return &pair, nil
}

// Adopt installs pair in memory and persists it.
// The pair is kept in memory even when persisting fails; the returned
// error then has kind ErrStorageFailure.
func (a *TokenAuthority) Adopt(ctx context.Context, pair TokenPair) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	return a.adoptLocked(ctx, pair)
}

func (a *TokenAuthority) adoptLocked(ctx context.Context, pair TokenPair) error {
	a.mu.Lock()
	a.pair = pair
	a.generation++
	a.mu.Unlock()

	var errs []error
	if err := a.store.Set(ctx, credstore.KeyAccessToken, pair.Access); err != nil {
		errs = append(errs, err)
	}
	if pair.Refresh != "" {
		if err := a.store.Set(ctx, credstore.KeyRefreshToken, pair.Refresh); err != nil {
			errs = append(errs, err)
		}
	} else if err := a.store.Delete(ctx, credstore.KeyRefreshToken); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		a.logger.Warn().Err(err).Msg("token pair adopted in memory but not persisted")
		return newError(ErrStorageFailure, "", err)
	}
	return nil
}

// Clear forgets the pair in memory and in the store. It never fails:
// storage errors are logged and the in-memory pair is cleared regardless.
func (a *TokenAuthority) Clear(ctx context.Context) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	a.clearLocked(ctx)
}

func (a *TokenAuthority) clearLocked(ctx context.Context) {
	a.mu.Lock()
	a.pair = TokenPair{}
	a.generation++
	a.mu.Unlock()

	for _, key := range []string{credstore.KeyAccessToken, credstore.KeyRefreshToken} {
		if err := a.store.Delete(ctx, key); err != nil {
			a.logger.Error().Err(err).Str("key", key).Msg("failed to delete stored credential")
		}
	}
}

// Renew exchanges the refresh token for a new pair.
// Callers arriving while a renewal is in flight wait for it and receive
// its outcome; no second request is sent. A caller whose ctx ends stops
// waiting, but the shared renewal carries on for the others.
func (a *TokenAuthority) Renew(ctx context.Context) (TokenPair, error) {
	ch := a.group.DoChan(renewKey, func() (interface{}, error) {
		return a.renew(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return TokenPair{}, res.Err
		}
		return res.Val.(TokenPair), nil
	case <-ctx.Done():
		return TokenPair{}, newError(ErrTransient, "", ctx.Err())
	}
}

func (a *TokenAuthority) renew(ctx context.Context) (TokenPair, error) {
	a.mu.RLock()
	refresh := a.pair.Refresh
	gen := a.generation
	a.mu.RUnlock()

	if refresh == "" {
		a.expire(ctx, gen)
		return TokenPair{}, newError(ErrSessionExpired, "", ErrNoRefreshToken)
	}

	a.logger.Debug().Msg("renewing access token")

	resp, err := a.refresher.RefreshTokens(ctx, refresh)
	if err != nil {
		if api.IsRejected(err) {
			a.logger.Info().Err(err).Msg("refresh token rejected")
			a.expire(ctx, gen)
			return TokenPair{}, Classify(err, ErrSessionExpired)
		}
		a.logger.Warn().Err(err).Msg("token renewal failed")
		return TokenPair{}, newError(ErrTransient, "", err)
	}

	pair := TokenPair{Access: resp.Access, Refresh: resp.Refresh}
	if pair.Refresh == "" {
		pair.Refresh = refresh
	}

	a.writeMu.Lock()

	a.mu.RLock()
	superseded := a.generation != gen
	current := a.pair
	a.mu.RUnlock()

	if superseded {
		a.writeMu.Unlock()
		// A logout or a fresh login happened while the request was out
		if current.Access == "" {
			return TokenPair{}, newError(ErrSessionExpired, "", errors.New("session cleared during renewal"))
		}
		return current, nil
	}

	// Durability failures are logged by adoptLocked; the new pair is usable
	_ = a.adoptLocked(ctx, pair)
	a.writeMu.Unlock()

	a.logger.Debug().Bool("rotated", resp.Refresh != "").Msg("access token renewed")

	a.mu.RLock()
	callbacks := append([]func(TokenPair){}, a.onRenewed...)
	a.mu.RUnlock()

	for _, fn := range callbacks {
		fn(pair)
	}
	return pair, nil
}

// expire clears the pair unless it changed since gen, then notifies
func (a *TokenAuthority) expire(ctx context.Context, gen uint64) {
	a.writeMu.Lock()

	a.mu.RLock()
	stale := a.generation != gen
	hadSession := a.pair.Access != "" || a.pair.Refresh != ""
	a.mu.RUnlock()

	if stale {
		a.writeMu.Unlock()
		return
	}
	a.clearLocked(ctx)
	a.writeMu.Unlock()

	if !hadSession {
		return
	}

	a.mu.RLock()
	callbacks := append([]func(){}, a.onExpired...)
	a.mu.RUnlock()

	for _, fn := range callbacks {
		fn()
	}
}
