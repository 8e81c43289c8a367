package catalog_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jaimani/ai-travel-demo/internal/adapter/catalog"
	"github.com/jaimani/ai-travel-demo/internal/domain"
	"github.com/jaimani/ai-travel-demo/internal/domain/travel"
)

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestSearchFlights_GeneratedSchedule(t *testing.T) {
	c := newCatalog(t)

	got, err := c.SearchFlights(context.Background(), travel.FlightQuery{
		Origin: "new york", Destination: "LOS ANGELES", DepartureDate: "2025-12-10",
	})
	if err != nil {
		t.Fatalf("SearchFlights: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 flights, got %d", len(got))
	}

	first := got[0]
	if first.ID != "NYLA-20251210-1" || first.Airline != "Ocean Air" {
		t.Errorf("unexpected first flight %+v", first)
	}
	if first.DepartureTime != "2025-12-10T07:00" || first.ArrivalTime != "2025-12-10T13:00" {
		t.Errorf("times = %s -> %s", first.DepartureTime, first.ArrivalTime)
	}
	if first.Duration != "6h 00m" || first.Price != 259 {
		t.Errorf("duration/price = %s/%v", first.Duration, first.Price)
	}
	if got[2].Stops != 1 || got[2].Duration != "6h 30m" {
		t.Errorf("budget flight = %+v", got[2])
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].DepartureTime > got[i].DepartureTime {
			t.Fatal("flights not sorted by departure time")
		}
	}
}

func TestSearchFlights_RoundTripAppendsReturn(t *testing.T) {
	c := newCatalog(t)

	got, _ := c.SearchFlights(context.Background(), travel.FlightQuery{
		Origin: "New York", Destination: "Los Angeles",
		DepartureDate: "2026-01-05", ReturnDate: "2026-01-09",
	})
	if len(got) != 6 {
		t.Fatalf("expected 6 flights, got %d", len(got))
	}
	if !strings.HasPrefix(got[3].ID, "LANY-20260109") {
		t.Errorf("expected return flights after outbound, got %s", got[3].ID)
	}
	if got[5].ArrivalTime != "2026-01-10T03:45" {
		t.Errorf("late return should arrive next day, got %s", got[5].ArrivalTime)
	}
}

func TestSearchFlights_OutsideWindowIsEmpty(t *testing.T) {
	c := newCatalog(t)

	got, err := c.SearchFlights(context.Background(), travel.FlightQuery{
		Origin: "New York", Destination: "Los Angeles", DepartureDate: "2026-02-01",
	})
	if err != nil {
		t.Fatalf("SearchFlights: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", got)
	}
}

func TestSearchFlights_SampleData(t *testing.T) {
	c := newCatalog(t)

	got, _ := c.SearchFlights(context.Background(), travel.FlightQuery{
		Origin: "Paris", Destination: "London", DepartureDate: "2026-01-15",
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 flights, got %d", len(got))
	}
}

func TestGetFlight(t *testing.T) {
	c := newCatalog(t)

	f, err := c.GetFlight(context.Background(), "LANY-20251201-2")
	if err != nil {
		t.Fatalf("GetFlight: %v", err)
	}
	if f.Airline != "Sky Airways" || f.Origin != "Los Angeles" {
		t.Errorf("unexpected flight %+v", f)
	}

	_, err = c.GetFlight(context.Background(), "NOPE")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchHotels(t *testing.T) {
	c := newCatalog(t)

	tests := []struct {
		name       string
		query      travel.HotelQuery
		wantNights int
		wantCount  int
	}{
		{"four nights", travel.HotelQuery{City: "los angeles", CheckinDate: "2025-12-10", CheckoutDate: "2025-12-14"}, 4, 4},
		{"bad date defaults to one night", travel.HotelQuery{City: "Los Angeles", CheckinDate: "soon", CheckoutDate: "2025-12-14"}, 1, 4},
		{"reversed dates default to one night", travel.HotelQuery{City: "Los Angeles", CheckinDate: "2025-12-14", CheckoutDate: "2025-12-10"}, 1, 4},
		{"max price filters on total", travel.HotelQuery{City: "Los Angeles", CheckinDate: "2025-12-10", CheckoutDate: "2025-12-12", MaxPrice: 400}, 2, 2},
		{"unknown city", travel.HotelQuery{City: "Atlantis", CheckinDate: "2025-12-10", CheckoutDate: "2025-12-12"}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.SearchHotels(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("SearchHotels: %v", err)
			}
			if len(got) != tt.wantCount {
				t.Fatalf("expected %d hotels, got %d", tt.wantCount, len(got))
			}
			for i, h := range got {
				if h.Nights != tt.wantNights {
					t.Errorf("nights = %d, want %d", h.Nights, tt.wantNights)
				}
				if h.TotalCost != h.PricePerNight*float64(h.Nights) {
					t.Errorf("total cost %v != %v x %d", h.TotalCost, h.PricePerNight, h.Nights)
				}
				if tt.query.MaxPrice > 0 && h.TotalCost > tt.query.MaxPrice {
					t.Errorf("total cost %v exceeds max %v", h.TotalCost, tt.query.MaxPrice)
				}
				if i > 0 && got[i-1].Rating < h.Rating {
					t.Error("hotels not sorted by rating descending")
				}
			}
		})
	}
}

func TestGetHotel(t *testing.T) {
	c := newCatalog(t)

	h, err := c.GetHotel(context.Background(), "HT-004")
	if err != nil {
		t.Fatalf("GetHotel: %v", err)
	}
	if h.City != "Los Angeles" {
		t.Errorf("unexpected hotel %+v", h)
	}

	_, err = c.GetHotel(context.Background(), "HT-999")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
