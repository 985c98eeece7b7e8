package api

import (
	"context"
	"fmt"
)

// PathSpots lists tourist spots
const PathSpots = "/api/tourism-spots/"

// Spot represents a tourist spot as served by the API
type Spot struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Location    *int64 `json:"location,omitempty"`
}

// ListSpots fetches all tourist spots
func (c *Client) ListSpots(ctx context.Context) ([]Spot, error) {
	var spots []Spot
	if err := c.Get(ctx, PathSpots, &spots); err != nil {
		return nil, err
	}
	return spots, nil
}

// GetSpot fetches a tourist spot by ID
func (c *Client) GetSpot(ctx context.Context, id int64) (*Spot, error) {
	var spot Spot
	if err := c.Get(ctx, fmt.Sprintf("/tourism/spots/%d/", id), &spot); err != nil {
		return nil, err
	}
	return &spot, nil
}
