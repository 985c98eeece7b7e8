package auth

import (
	"context"

	"github.com/bicoltravel/btg-cli/internal/api"
	iface "github.com/bicoltravel/btg-cli/internal/service/interface"
	"github.com/rs/zerolog"
)

// ProfileFetcher calls the profile endpoint
type ProfileFetcher interface {
	Profile(ctx context.Context, accessToken string) (*api.ProfileResponse, error)
}

// ProfileResolver turns an access token into the user's identity
type ProfileResolver struct {
	fetcher ProfileFetcher
	renewer Renewer
	logger  zerolog.Logger
}

// NewProfileResolver creates a resolver that renews through renewer
func NewProfileResolver(fetcher ProfileFetcher, renewer Renewer, logger zerolog.Logger) *ProfileResolver {
	return &ProfileResolver{
		fetcher: fetcher,
		renewer: renewer,
		logger:  logger.With().Str("component", "profile_resolver").Logger(),
	}
}

// Resolve fetches the identity behind access.
// Errors are classified: ErrSessionExpired when the token could not be
// renewed or was rejected again, ErrTransient for anything else.
func (r *ProfileResolver) Resolve(ctx context.Context, access string) (*iface.Identity, error) {
	var profile *api.ProfileResponse
	err := WithRenewal(ctx, r.renewer, access, func(ctx context.Context, token string) error {
		p, err := r.fetcher.Profile(ctx, token)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		if KindOf(err) == nil {
			err = newError(ErrTransient, "", err)
		}
		r.logger.Debug().Err(err).Msg("profile fetch failed")
		return nil, err
	}

	role, err := iface.ParseRole(profile.Role)
	if err != nil {
		return nil, newError(ErrTransient, "The server returned an unexpected profile.", err)
	}

	return &iface.Identity{
		Username: profile.Username,
		Email:    profile.Email,
		Role:     role,
	}, nil
}
