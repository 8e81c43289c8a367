// Package travel holds the flight and hotel records returned by the search
// providers.
package travel

// Flight is one scheduled flight.
type Flight struct {
	ID            string  `json:"id"`
	Airline       string  `json:"airline"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	DepartureTime string  `json:"departure_time"` // YYYY-MM-DDTHH:MM, local
	ArrivalTime   string  `json:"arrival_time"`
	Price         float64 `json:"price"`
	Duration      string  `json:"duration"` // "6h 00m"
	Stops         int     `json:"stops"`
}

// Hotel is a property in the hotel inventory.
type Hotel struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	City          string   `json:"city"`
	Rating        float64  `json:"rating"`
	PricePerNight float64  `json:"price_per_night"`
	Amenities     []string `json:"amenities"`
	Address       string   `json:"address"`
}

// HotelOffer is a hotel priced for a specific stay.
type HotelOffer struct {
	Hotel
	Nights    int     `json:"nights"`
	TotalCost float64 `json:"total_cost"`
}

// FlightQuery filters flight searches. ReturnDate is optional.
type FlightQuery struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date,omitempty"`
}

// HotelQuery filters hotel searches. MaxPrice, when positive, caps the
// total cost of the stay.
type HotelQuery struct {
	City         string  `json:"city"`
	CheckinDate  string  `json:"checkin_date"`
	CheckoutDate string  `json:"checkout_date"`
	MaxPrice     float64 `json:"max_price,omitempty"`
}
