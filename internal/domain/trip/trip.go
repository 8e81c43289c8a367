// Package trip defines the trip planning requests accepted by the planner
// and the invariants they must satisfy before any agent runs.
package trip

import (
	"fmt"
	"strings"
	"time"

	"github.com/jaimani/ai-travel-demo/internal/domain"
)

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

const (
	MinLegs = 2
	MaxLegs = 4
)

// Request is a single-city round trip.
type Request struct {
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	DepartureDate string  `json:"departure_date"`
	ReturnDate    string  `json:"return_date"`
	Budget        float64 `json:"budget"`
	Passengers    int     `json:"passengers"`
}

// Leg is one origin to destination segment of a multi-city trip.
type Leg struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	LegNumber     int    `json:"leg_number"`
}

// MultiCityRequest is an ordered, closed loop of legs sharing one budget.
type MultiCityRequest struct {
	Legs       []Leg   `json:"trip_legs"`
	Budget     float64 `json:"budget"`
	Passengers int     `json:"passengers"`
}

// Validate normalizes defaults and checks the single-city invariants.
func (r *Request) Validate() error {
	r.Origin = strings.TrimSpace(r.Origin)
	r.Destination = strings.TrimSpace(r.Destination)
	if r.Origin == "" {
		return invalid("origin is required")
	}
	if r.Destination == "" {
		return invalid("destination is required")
	}
	if strings.EqualFold(r.Origin, r.Destination) {
		return invalid("origin and destination must differ")
	}
	dep, err := parseDate("departure_date", r.DepartureDate)
	if err != nil {
		return err
	}
	ret, err := parseDate("return_date", r.ReturnDate)
	if err != nil {
		return err
	}
	if ret.Before(dep) {
		return invalid("return_date must not be before departure_date")
	}
	return checkBudget(r.Budget, &r.Passengers)
}

// Validate normalizes leg numbers and checks the multi-city invariants:
// leg count bounds, a round trip back to the first origin, and continuity
// between adjacent legs. Errors name the offending leg (1-based).
func (m *MultiCityRequest) Validate() error {
	n := len(m.Legs)
	if n < MinLegs || n > MaxLegs {
		return invalid(fmt.Sprintf("trip_legs must contain %d to %d legs, got %d", MinLegs, MaxLegs, n))
	}

	var prev time.Time
	for i := range m.Legs {
		leg := &m.Legs[i]
		leg.Origin = strings.TrimSpace(leg.Origin)
		leg.Destination = strings.TrimSpace(leg.Destination)
		if leg.LegNumber == 0 {
			leg.LegNumber = i + 1
		}
		if leg.Origin == "" {
			return invalidLeg(i, "origin is required")
		}
		if leg.Destination == "" {
			return invalidLeg(i, "destination is required")
		}
		if strings.EqualFold(leg.Origin, leg.Destination) {
			return invalidLeg(i, "origin and destination must differ")
		}
		dep, err := time.Parse(DateLayout, leg.DepartureDate)
		if err != nil {
			return invalidLeg(i, fmt.Sprintf("departure_date %q must use YYYY-MM-DD", leg.DepartureDate))
		}
		if i > 0 && dep.Before(prev) {
			return invalidLeg(i, "departure_date is earlier than the previous leg")
		}
		prev = dep

		if i > 0 && !strings.EqualFold(m.Legs[i-1].Destination, leg.Origin) {
			return invalidLeg(i, fmt.Sprintf("origin %q does not continue from leg %d destination %q",
				leg.Origin, i, m.Legs[i-1].Destination))
		}
	}

	first, last := m.Legs[0], m.Legs[n-1]
	if !strings.EqualFold(first.Origin, last.Destination) {
		return invalidLeg(n-1, fmt.Sprintf("destination %q must return to trip origin %q",
			last.Destination, first.Origin))
	}

	return checkBudget(m.Budget, &m.Passengers)
}

// Origin returns the city the trip starts and ends in.
func (m *MultiCityRequest) Origin() string {
	if len(m.Legs) == 0 {
		return ""
	}
	return m.Legs[0].Origin
}

// DestinationCities returns the cities a traveller stays in, in visiting
// order. The trip origin is never included.
func (m *MultiCityRequest) DestinationCities() []string {
	origin := m.Origin()
	var cities []string
	for _, leg := range m.Legs {
		if strings.EqualFold(leg.Destination, origin) {
			continue
		}
		cities = append(cities, leg.Destination)
	}
	return cities
}

func checkBudget(budget float64, passengers *int) error {
	if budget <= 0 {
		return invalid("budget must be greater than zero")
	}
	if *passengers == 0 {
		*passengers = 1
	}
	if *passengers < 1 {
		return invalid("passengers must be at least 1")
	}
	return nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, invalid(fmt.Sprintf("%s %q must use YYYY-MM-DD", field, value))
	}
	return t, nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
}

func invalidLeg(index int, msg string) error {
	return fmt.Errorf("%w: leg %d: %s", domain.ErrValidation, index+1, msg)
}
