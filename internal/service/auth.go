package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/bicoltravel/btg-cli/internal/api"
	"github.com/bicoltravel/btg-cli/internal/auth"
	iface "github.com/bicoltravel/btg-cli/internal/service/interface"
	"github.com/rs/zerolog"
)

var (
	// ErrAlreadyLoggedIn is returned by Login when a user is already authenticated
	ErrAlreadyLoggedIn = errors.New("already logged in. Use 'btg logout' first to log out")

	// ErrSuperseded is returned when a later session change overtook the operation
	ErrSuperseded = errors.New("operation superseded by a newer session change")
)

// AuthAPI is the part of the API client the session controller calls
type AuthAPI interface {
	ObtainTokens(ctx context.Context, username, password string) (*api.TokenResponse, error)
	Register(ctx context.Context, req *api.RegisterRequest) error
	Logout(ctx context.Context, refreshToken string) error
}

// Tokens is the token authority as seen by the session controller
type Tokens interface {
	Bootstrap(ctx context.Context) (*auth.TokenPair, error)
	Adopt(ctx context.Context, pair auth.TokenPair) error
	Clear(ctx context.Context)
	CurrentAccess() (string, bool)
	CurrentRefresh() (string, bool)
	OnExpired(fn func())
	OnRenewed(fn func(auth.TokenPair))
}

// IdentityResolver resolves the user behind an access token
type IdentityResolver interface {
	Resolve(ctx context.Context, access string) (*iface.Identity, error)
}

// SessionController implements iface.AuthService.
// It is the only writer of the session; every transition is published
// through the broadcaster before the triggering call returns.
type SessionController struct {
	client      AuthAPI
	tokens      Tokens
	resolver    IdentityResolver
	broadcaster *Broadcaster
	logger      zerolog.Logger

	// mu serializes transitions; gen tags the operation allowed to commit
	mu  sync.Mutex
	gen uint64
}

var _ iface.AuthService = (*SessionController)(nil)

// NewSessionController creates the session controller.
// It subscribes to the token authority so a renewal triggered by any
// consumer is reflected in the session, and a failed one ends it.
func NewSessionController(
	client AuthAPI,
	tokens Tokens,
	resolver IdentityResolver,
	broadcaster *Broadcaster,
	logger zerolog.Logger,
) *SessionController {
	c := &SessionController{
		client:      client,
		tokens:      tokens,
		resolver:    resolver,
		broadcaster: broadcaster,
		logger:      logger.With().Str("component", "session").Logger(),
	}
	tokens.OnExpired(c.expire)
	tokens.OnRenewed(c.renewed)
	return c
}

// Bootstrap restores a stored session.
// With no stored access token it ends LoggedOut without any network call.
// A transient failure leaves the session Pending with Err set and keeps
// the stored credentials.
func (c *SessionController) Bootstrap(ctx context.Context) (iface.Session, error) {
	if current := c.Snapshot(); current.IsAuthenticated() {
		return current, nil
	}

	gen := c.begin()

	pair, err := c.tokens.Bootstrap(ctx)
	if err != nil {
		return c.commit(gen, iface.Session{State: iface.StatePending, Err: err}, err)
	}
	if pair == nil {
		return c.commit(gen, iface.Session{State: iface.StateLoggedOut}, nil)
	}

	identity, err := c.resolver.Resolve(ctx, pair.Access)
	if err != nil {
		if errors.Is(err, auth.ErrSessionExpired) {
			return c.fail(ctx, gen, err, true)
		}
		return c.commit(gen, iface.Session{State: iface.StatePending, Err: err}, err)
	}

	return c.authenticated(gen, identity)
}

// Login exchanges username and password for tokens and resolves the user.
// When the server refuses the credentials, Failed is published with the
// error and immediately collapsed to LoggedOut; no tokens are stored.
func (c *SessionController) Login(ctx context.Context, username, password string) (iface.Session, error) {
	if current := c.Snapshot(); current.IsAuthenticated() {
		return current, ErrAlreadyLoggedIn
	}

	gen := c.begin()

	resp, err := c.client.ObtainTokens(ctx, username, password)
	if err != nil {
		return c.fail(ctx, gen, auth.Classify(err, auth.ErrCredentialRejected), false)
	}
	pair := auth.TokenPair{Access: resp.Access, Refresh: resp.Refresh}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return c.Snapshot(), ErrSuperseded
	}
	if err := c.tokens.Adopt(ctx, pair); err != nil {
		c.logger.Warn().Err(err).Msg("continuing with unpersisted session")
	}
	c.mu.Unlock()

	identity, err := c.resolver.Resolve(ctx, pair.Access)
	if err != nil {
		return c.fail(ctx, gen, err, true)
	}

	return c.authenticated(gen, identity)
}

// Register creates an account. The session is not changed; callers log
// in afterwards.
func (c *SessionController) Register(ctx context.Context, input *iface.RegisterInput) error {
	if err := validateRegistration(input); err != nil {
		return err
	}

	err := c.client.Register(ctx, &api.RegisterRequest{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
		Role:     string(input.Role),
	})
	if err != nil {
		c.logger.Debug().Err(err).Str("username", input.Username).Msg("registration failed")
		return auth.Classify(err, auth.ErrCredentialRejected)
	}

	c.logger.Info().Str("username", input.Username).Str("role", string(input.Role)).Msg("account registered")
	return nil
}

// Logout ends the session from any state. Local credentials are always
// cleared; the server is told best effort.
func (c *SessionController) Logout(ctx context.Context) {
	c.mu.Lock()
	c.gen++

	refresh, ok := c.tokens.CurrentRefresh()
	if !ok {
		// Fresh process: the pair is only on disk
		if pair, err := c.tokens.Bootstrap(ctx); err == nil && pair != nil {
			refresh = pair.Refresh
		}
	}
	c.tokens.Clear(ctx)
	c.broadcaster.Publish(iface.Session{State: iface.StateLoggedOut})
	c.mu.Unlock()

	if refresh == "" {
		return
	}
	if err := c.client.Logout(ctx, refresh); err != nil {
		c.logger.Warn().Err(err).Msg("server-side logout failed")
	}
}

// Snapshot returns the current session
func (c *SessionController) Snapshot() iface.Session {
	return c.broadcaster.Snapshot()
}

// Subscribe registers handler for every session transition.
// Handlers run synchronously and must not call back into the controller's
// operations; Snapshot is safe.
func (c *SessionController) Subscribe(handler func(iface.Session)) iface.Subscription {
	return c.broadcaster.Subscribe(handler)
}

// Unsubscribe removes a handler registered with Subscribe
func (c *SessionController) Unsubscribe(sub iface.Subscription) {
	c.broadcaster.Unsubscribe(sub)
}

// begin starts a new operation, superseding any in flight
func (c *SessionController) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.broadcaster.Publish(iface.Session{State: iface.StatePending})
	return c.gen
}

// commit publishes session if gen is still current.
// A superseded operation gets the current session and err, or
// ErrSuperseded when it had succeeded.
func (c *SessionController) commit(gen uint64, session iface.Session, err error) (iface.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return c.superseded(err)
	}
	c.broadcaster.Publish(session)
	return session, err
}

func (c *SessionController) authenticated(gen uint64, identity *iface.Identity) (iface.Session, error) {
	access, _ := c.tokens.CurrentAccess()
	c.logger.Info().Str("username", identity.Username).Str("role", string(identity.Role)).Msg("authenticated")

	return c.commit(gen, iface.Session{
		State:       iface.StateAuthenticated,
		Identity:    identity,
		AccessToken: access,
	}, nil)
}

// fail publishes Failed followed by LoggedOut, clearing the tokens first
// when clear is set
func (c *SessionController) fail(ctx context.Context, gen uint64, err error, clear bool) (iface.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return c.superseded(err)
	}
	if clear {
		c.tokens.Clear(ctx)
	}

	c.logger.Info().Err(err).Msg("session failed")
	c.broadcaster.Publish(iface.Session{State: iface.StateFailed, Err: err})

	loggedOut := iface.Session{State: iface.StateLoggedOut}
	c.broadcaster.Publish(loggedOut)
	return loggedOut, err
}

func (c *SessionController) superseded(err error) (iface.Session, error) {
	if err == nil {
		err = ErrSuperseded
	}
	return c.broadcaster.Snapshot(), err
}

// expire ends the session after the token authority gave up on renewal
func (c *SessionController) expire() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if c.broadcaster.Snapshot().State == iface.StateLoggedOut {
		return
	}

	c.logger.Info().Msg("session expired")
	c.broadcaster.Publish(iface.Session{
		State: iface.StateFailed,
		Err:   &auth.Error{Kind: auth.ErrSessionExpired},
	})
	c.broadcaster.Publish(iface.Session{State: iface.StateLoggedOut})
}

// renewed republishes an authenticated session with the renewed access token
func (c *SessionController) renewed(pair auth.TokenPair) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.broadcaster.Snapshot()
	if !current.IsAuthenticated() || current.AccessToken == pair.Access {
		return
	}
	// A newer login or logout already replaced the pair
	if access, _ := c.tokens.CurrentAccess(); access != pair.Access {
		return
	}

	current.AccessToken = pair.Access
	c.broadcaster.Publish(current)
}

func validateRegistration(input *iface.RegisterInput) error {
	var missing []string
	if input == nil {
		input = &iface.RegisterInput{}
	}
	if strings.TrimSpace(input.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(input.Email) == "" {
		missing = append(missing, "email")
	}
	if input.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &auth.Error{Kind: auth.ErrCredentialRejected, Message: "missing " + strings.Join(missing, ", ")}
	}
	if !input.Role.Valid() {
		return &auth.Error{Kind: auth.ErrCredentialRejected, Message: "unknown role " + string(input.Role)}
	}
	return nil
}
