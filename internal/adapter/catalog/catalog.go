// Package catalog is an in-memory flight and hotel inventory backed by
// embedded sample data and a generated New York / Los Angeles schedule.
package catalog

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/jaimani/ai-travel-demo/internal/domain"
	"github.com/jaimani/ai-travel-demo/internal/domain/travel"
	"github.com/jaimani/ai-travel-demo/internal/domain/trip"
)

//go:embed data/*.json
var data embed.FS

// Catalog implements search.Flights and search.Hotels. It is immutable
// after construction and safe for concurrent use.
type Catalog struct {
	flights    []travel.Flight
	flightByID map[string]int
	hotels     []travel.Hotel
	hotelByID  map[string]int
}

// New loads the embedded inventory and appends the generated schedule.
func New() (*Catalog, error) {
	var flights []travel.Flight
	if err := load("data/sample_flights.json", &flights); err != nil {
		return nil, err
	}
	var hotels []travel.Hotel
	if err := load("data/sample_hotels.json", &hotels); err != nil {
		return nil, err
	}
	flights = append(flights, dailySchedule()...)

	c := &Catalog{
		flights:    flights,
		flightByID: make(map[string]int, len(flights)),
		hotels:     hotels,
		hotelByID:  make(map[string]int, len(hotels)),
	}
	for i, f := range flights {
		c.flightByID[f.ID] = i
	}
	for i, h := range hotels {
		c.hotelByID[h.ID] = i
	}
	return c, nil
}

func load(name string, v any) error {
	raw, err := data.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// SearchFlights returns outbound flights matching origin, destination and
// departure date, followed by return flights when a return date is given.
// An empty date matches every day.
func (c *Catalog) SearchFlights(_ context.Context, q travel.FlightQuery) ([]travel.Flight, error) {
	out := c.matchFlights(q.Origin, q.Destination, q.DepartureDate)
	if q.ReturnDate != "" {
		out = append(out, c.matchFlights(q.Destination, q.Origin, q.ReturnDate)...)
	}
	return out, nil
}

func (c *Catalog) matchFlights(origin, destination, date string) []travel.Flight {
	out := []travel.Flight{}
	for _, f := range c.flights {
		if !strings.EqualFold(f.Origin, origin) || !strings.EqualFold(f.Destination, destination) {
			continue
		}
		if date != "" && !strings.HasPrefix(f.DepartureTime, date) {
			continue
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DepartureTime < out[j].DepartureTime })
	return out
}

// GetFlight returns the flight with the given ID.
func (c *Catalog) GetFlight(_ context.Context, id string) (*travel.Flight, error) {
	i, ok := c.flightByID[id]
	if !ok {
		return nil, fmt.Errorf("flight %s: %w", id, domain.ErrNotFound)
	}
	f := c.flights[i]
	return &f, nil
}

// SearchHotels prices every hotel in the city for the stay and returns
// them best rated first. A positive MaxPrice caps the stay's total cost.
func (c *Catalog) SearchHotels(_ context.Context, q travel.HotelQuery) ([]travel.HotelOffer, error) {
	nights := stayNights(q.CheckinDate, q.CheckoutDate)
	out := []travel.HotelOffer{}
	for _, h := range c.hotels {
		if !strings.EqualFold(h.City, q.City) {
			continue
		}
		total := h.PricePerNight * float64(nights)
		if q.MaxPrice > 0 && total > q.MaxPrice {
			continue
		}
		offer := travel.HotelOffer{Hotel: h, Nights: nights, TotalCost: total}
		offer.Amenities = append([]string(nil), h.Amenities...)
		out = append(out, offer)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out, nil
}

// GetHotel returns the hotel with the given ID.
func (c *Catalog) GetHotel(_ context.Context, id string) (*travel.Hotel, error) {
	i, ok := c.hotelByID[id]
	if !ok {
		return nil, fmt.Errorf("hotel %s: %w", id, domain.ErrNotFound)
	}
	h := c.hotels[i]
	h.Amenities = append([]string(nil), h.Amenities...)
	return &h, nil
}

// stayNights is 1 when either date is unparseable or the span is not positive.
func stayNights(checkin, checkout string) int {
	in, err := time.Parse(trip.DateLayout, checkin)
	if err != nil {
		return 1
	}
	out, err := time.Parse(trip.DateLayout, checkout)
	if err != nil {
		return 1
	}
	nights := int(out.Sub(in).Hours() / 24)
	if nights < 1 {
		return 1
	}
	return nights
}
