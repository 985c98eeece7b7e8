package service

import (
	"context"
	"fmt"

	"github.com/bicoltravel/btg-cli/internal/api"
	"github.com/bicoltravel/btg-cli/internal/auth"
	iface "github.com/bicoltravel/btg-cli/internal/service/interface"
)

// SpotTokens is the token authority as seen by resource services
type SpotTokens interface {
	Bootstrap(ctx context.Context) (*auth.TokenPair, error)
	Renew(ctx context.Context) (auth.TokenPair, error)
}

// spotService implements iface.SpotService
type spotService struct {
	client *api.Client
	tokens SpotTokens
}

// NewSpotService creates a new spot service
func NewSpotService(client *api.Client, tokens SpotTokens) iface.SpotService {
	return &spotService{
		client: client,
		tokens: tokens,
	}
}

// accessToken returns the current access token, loading it from the
// store when this process has not seen it yet
func (s *spotService) accessToken(ctx context.Context) (string, error) {
	pair, err := s.tokens.Bootstrap(ctx)
	if err != nil {
		return "", err
	}
	if pair == nil {
		return "", &auth.Error{Kind: auth.ErrSessionExpired, Message: "not logged in. Please run 'btg login' first"}
	}
	return pair.Access, nil
}

// call runs fn with a bearer client, renewing the token once on rejection
func (s *spotService) call(ctx context.Context, fn func(ctx context.Context, client *api.Client) error) error {
	access, err := s.accessToken(ctx)
	if err != nil {
		return err
	}

	return auth.WithRenewal(ctx, s.tokens, access, func(ctx context.Context, token string) error {
		return fn(ctx, s.client.WithToken(token))
	})
}

// ListSpots returns all tourist spots
func (s *spotService) ListSpots(ctx context.Context) ([]iface.Spot, error) {
	var spots []api.Spot
	err := s.call(ctx, func(ctx context.Context, client *api.Client) error {
		var err error
		spots, err = client.ListSpots(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spots: %w", err)
	}

	result := make([]iface.Spot, 0, len(spots))
	for _, spot := range spots {
		result = append(result, toSpot(spot))
	}
	return result, nil
}

// GetSpot returns a tourist spot by ID
func (s *spotService) GetSpot(ctx context.Context, id int64) (*iface.Spot, error) {
	var spot *api.Spot
	err := s.call(ctx, func(ctx context.Context, client *api.Client) error {
		var err error
		spot, err = client.GetSpot(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spot: %w", err)
	}

	result := toSpot(*spot)
	return &result, nil
}

func toSpot(spot api.Spot) iface.Spot {
	return iface.Spot{
		ID:          spot.ID,
		Name:        spot.Name,
		Description: spot.Description,
		Image:       spot.Image,
		LocationID:  spot.Location,
	}
}
