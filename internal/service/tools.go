package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"

	"github.com/jaimani/ai-travel-demo/internal/domain/agent"
	"github.com/jaimani/ai-travel-demo/internal/domain/travel"
	"github.com/jaimani/ai-travel-demo/internal/port/search"
)

// Tool names exposed to the model.
const (
	ToolSearchFlights = "search_flights"
	ToolSearchHotels  = "search_hotels"
)

// Tool calling accepts a subset of JSON schema: no $ref, closed objects.
var toolReflector = jsonschema.Reflector{
	AllowAdditionalProperties: false,
	DoNotReference:            true,
}

type flightSearchArgs struct {
	Origin        string `json:"origin" jsonschema:"description=Departure city, e.g. New York"`
	Destination   string `json:"destination" jsonschema:"description=Arrival city, e.g. Los Angeles"`
	DepartureDate string `json:"departure_date" jsonschema:"description=Departure date in YYYY-MM-DD format"`
	ReturnDate    string `json:"return_date,omitempty" jsonschema:"description=Return date in YYYY-MM-DD format; omit for one-way legs"`
}

type hotelSearchArgs struct {
	City         string  `json:"city" jsonschema:"description=City to search hotels in"`
	CheckinDate  string  `json:"checkin_date" jsonschema:"description=Check-in date in YYYY-MM-DD format"`
	CheckoutDate string  `json:"checkout_date" jsonschema:"description=Check-out date in YYYY-MM-DD format"`
	MaxPrice     float64 `json:"max_price,omitempty" jsonschema:"description=Maximum total cost for the whole stay"`
}

// toolSchema reflects the argument struct of a tool into a plain JSON
// schema object.
func toolSchema(v any) map[string]any {
	schema := toolReflector.Reflect(v)
	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("tool schema: %v", err))
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("tool schema: %v", err))
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out
}

// requireArgs returns an error naming the first missing string argument.
func requireArgs(args string, names ...string) error {
	if !gjson.Valid(args) || !gjson.Parse(args).IsObject() {
		return errors.New("arguments must be a JSON object")
	}
	for _, n := range names {
		if strings.TrimSpace(gjson.Get(args, n).String()) == "" {
			return fmt.Errorf("missing required argument %q", n)
		}
	}
	return nil
}

// SearchFlightsTool lets an agent query the flight inventory.
type SearchFlightsTool struct {
	flights search.Flights
	params  map[string]any
}

// NewSearchFlightsTool creates the search_flights tool.
func NewSearchFlightsTool(flights search.Flights) *SearchFlightsTool {
	return &SearchFlightsTool{flights: flights, params: toolSchema(&flightSearchArgs{})}
}

func (t *SearchFlightsTool) Name() string { return ToolSearchFlights }

func (t *SearchFlightsTool) Description() string {
	return "Search available flights between two cities on a date. " +
		"Pass return_date to also get return flights for a round trip."
}

func (t *SearchFlightsTool) Parameters() map[string]any { return t.params }

// Call runs the search and returns the matching flights as a JSON array.
func (t *SearchFlightsTool) Call(ctx context.Context, arguments string) (string, error) {
	if err := requireArgs(arguments, "origin", "destination", "departure_date"); err != nil {
		return "", fmt.Errorf("%s: %w", ToolSearchFlights, err)
	}
	q := travel.FlightQuery{
		Origin:        gjson.Get(arguments, "origin").String(),
		Destination:   gjson.Get(arguments, "destination").String(),
		DepartureDate: gjson.Get(arguments, "departure_date").String(),
		ReturnDate:    gjson.Get(arguments, "return_date").String(),
	}

	flights, err := t.flights.SearchFlights(ctx, q)
	if err != nil {
		return "", fmt.Errorf("%s: %w", ToolSearchFlights, err)
	}
	return encodeResults(flights)
}

// SearchHotelsTool lets an agent query the hotel inventory.
type SearchHotelsTool struct {
	hotels search.Hotels
	params map[string]any
}

// NewSearchHotelsTool creates the search_hotels tool.
func NewSearchHotelsTool(hotels search.Hotels) *SearchHotelsTool {
	return &SearchHotelsTool{hotels: hotels, params: toolSchema(&hotelSearchArgs{})}
}

func (t *SearchHotelsTool) Name() string { return ToolSearchHotels }

func (t *SearchHotelsTool) Description() string {
	return "Search hotels in a city for a stay. Results include nights and total_cost, best rated first."
}

func (t *SearchHotelsTool) Parameters() map[string]any { return t.params }

// Call runs the search and returns the priced offers as a JSON array.
func (t *SearchHotelsTool) Call(ctx context.Context, arguments string) (string, error) {
	if err := requireArgs(arguments, "city", "checkin_date", "checkout_date"); err != nil {
		return "", fmt.Errorf("%s: %w", ToolSearchHotels, err)
	}
	q := travel.HotelQuery{
		City:         gjson.Get(arguments, "city").String(),
		CheckinDate:  gjson.Get(arguments, "checkin_date").String(),
		CheckoutDate: gjson.Get(arguments, "checkout_date").String(),
		MaxPrice:     gjson.Get(arguments, "max_price").Float(),
	}

	offers, err := t.hotels.SearchHotels(ctx, q)
	if err != nil {
		return "", fmt.Errorf("%s: %w", ToolSearchHotels, err)
	}
	return encodeResults(offers)
}

func encodeResults[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}
	return string(raw), nil
}

var (
	_ agent.Tool = (*SearchFlightsTool)(nil)
	_ agent.Tool = (*SearchHotelsTool)(nil)
)
