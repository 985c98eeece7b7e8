package iface

import (
	"context"
)

// Spot represents a tourist spot
type Spot struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	LocationID  *int64 `json:"location_id,omitempty"`
}

// SpotService defines the interface for tourist spot operations
type SpotService interface {
	// ListSpots returns all tourist spots
	ListSpots(ctx context.Context) ([]Spot, error)

	// GetSpot returns a tourist spot by ID
	GetSpot(ctx context.Context, id int64) (*Spot, error)
}
