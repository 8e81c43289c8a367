// Package search defines the flight and hotel search ports used by the
// agents' tools and the direct search endpoints.
package search

import (
	"context"

	"github.com/jaimani/ai-travel-demo/internal/domain/travel"
)

// Flights searches the flight inventory. An empty result is not an error.
type Flights interface {
	SearchFlights(ctx context.Context, q travel.FlightQuery) ([]travel.Flight, error)
	// GetFlight returns domain.ErrNotFound for unknown IDs.
	GetFlight(ctx context.Context, id string) (*travel.Flight, error)
}

// Hotels searches the hotel inventory. An empty result is not an error.
type Hotels interface {
	SearchHotels(ctx context.Context, q travel.HotelQuery) ([]travel.HotelOffer, error)
	// GetHotel returns domain.ErrNotFound for unknown IDs.
	GetHotel(ctx context.Context, id string) (*travel.Hotel, error)
}
