package auth

import (
	"context"

	"github.com/bicoltravel/btg-cli/internal/api"
)

// Renewer obtains a fresh token pair
type Renewer interface {
	Renew(ctx context.Context) (TokenPair, error)
}

// WithRenewal runs call with access. If the API rejects the token, the
// pair is renewed and call is retried exactly once with the new access
// token. A second rejection is reported as ErrSessionExpired.
//
// Errors that are not authorization rejections are returned unchanged
// and never trigger a renewal.
func WithRenewal(ctx context.Context, renewer Renewer, access string, call func(ctx context.Context, token string) error) error {
	err := call(ctx, access)
	if err == nil || !api.IsUnauthorized(err) {
		return err
	}

	pair, err := renewer.Renew(ctx)
	if err != nil {
		return err
	}

	err = call(ctx, pair.Access)
	if err != nil && api.IsUnauthorized(err) {
		return newError(ErrSessionExpired, "", err)
	}
	return err
}
