// Package di provides dependency injection for the btg CLI.
// It contains the service container and factory functions.
package di

import (
	"fmt"
	"io"

	"github.com/bicoltravel/btg-cli/internal/api"
	"github.com/bicoltravel/btg-cli/internal/auth"
	"github.com/bicoltravel/btg-cli/internal/config"
	"github.com/bicoltravel/btg-cli/internal/credstore"
	"github.com/bicoltravel/btg-cli/internal/logging"
	"github.com/bicoltravel/btg-cli/internal/service"
	iface "github.com/bicoltravel/btg-cli/internal/service/interface"
	"github.com/rs/zerolog"
)

// Container holds all service dependencies for the CLI.
// Services are accessed via interfaces to enable mocking in tests.
type Container struct {
	config      *config.Config
	logger      zerolog.Logger
	authService iface.AuthService
	spotService iface.SpotService
}

// NewContainer creates a new dependency container with default implementations.
// Logs are written to logOut.
func NewContainer(cfg *config.Config, logOut io.Writer) (*Container, error) {
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, logOut)

	store, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.APIURL, cfg.RequestTimeout)
	tokens := auth.NewTokenAuthority(store, client, logger)
	resolver := auth.NewProfileResolver(client, tokens, logger)

	broadcaster := service.NewBroadcaster()
	controller := service.NewSessionController(client, tokens, resolver, broadcaster, logger)
	controller.Subscribe(logTransitions(logger))

	logger.Debug().
		Str("api_url", cfg.APIURL).
		Str("credential_store", cfg.CredentialStore).
		Msg("container initialized")

	return &Container{
		config:      cfg,
		logger:      logger,
		authService: controller,
		spotService: service.NewSpotService(client, tokens),
	}, nil
}

// NewStore creates the credential store selected by cfg
func NewStore(cfg *config.Config) (credstore.Store, error) {
	switch cfg.CredentialStore {
	case config.StoreFile:
		return credstore.NewFileStore(cfg.CredentialsPath), nil
	case config.StoreKeyring:
		return credstore.NewKeyringStore(credstore.DefaultKeyringService), nil
	case config.StoreMemory:
		return credstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown credential store %q", cfg.CredentialStore)
	}
}

// NewContainerWithServices creates a container with custom service implementations.
// This is useful for testing with mock services.
func NewContainerWithServices(
	authService iface.AuthService,
	spotService iface.SpotService,
) *Container {
	return &Container{
		config:      &config.Config{APIURL: config.DefaultAPIURL},
		logger:      zerolog.Nop(),
		authService: authService,
		spotService: spotService,
	}
}

func logTransitions(logger zerolog.Logger) func(iface.Session) {
	logger = logger.With().Str("component", "session_log").Logger()
	return func(s iface.Session) {
		event := logger.Debug().Str("state", s.State.String())
		if s.Identity != nil {
			event = event.Str("username", s.Identity.Username)
		}
		if s.Err != nil {
			event = event.Err(s.Err)
		}
		event.Msg("session transition")
	}
}

// AuthService returns the authentication service
func (c *Container) AuthService() iface.AuthService {
	return c.authService
}

// SpotService returns the tourist spot service
func (c *Container) SpotService() iface.SpotService {
	return c.spotService
}

// Config returns the loaded configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the CLI logger
func (c *Container) Logger() zerolog.Logger {
	return c.logger
}
