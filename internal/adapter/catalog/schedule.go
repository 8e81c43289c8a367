package catalog

import (
	"fmt"
	"time"

	"github.com/jaimani/ai-travel-demo/internal/domain/travel"
)

const (
	timeLayout = "2006-01-02T15:04"

	cityNewYork    = "New York"
	cityLosAngeles = "Los Angeles"
)

var (
	scheduleStart = time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)
	scheduleEnd   = time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)
)

type pattern struct {
	airline  string
	hour     int
	minute   int
	duration int // minutes
	price    float64
	stops    int
}

var (
	outboundPatterns = []pattern{
		{"Ocean Air", 7, 0, 360, 259, 0},
		{"Sky Airways", 12, 30, 345, 309, 0},
		{"Budget Airlines", 18, 15, 390, 219, 1},
	}
	returnPatterns = []pattern{
		{"Ocean Air", 9, 0, 355, 269, 0},
		{"Sky Airways", 14, 45, 345, 299, 0},
		{"Budget Airlines", 21, 0, 405, 229, 1},
	}
)

// dailySchedule generates three flights each way per day between New York
// and Los Angeles for the seasonal window.
func dailySchedule() []travel.Flight {
	var out []travel.Flight
	for day := scheduleStart; !day.After(scheduleEnd); day = day.AddDate(0, 0, 1) {
		stamp := day.Format("20060102")
		for i, p := range outboundPatterns {
			out = append(out, p.flight(fmt.Sprintf("NYLA-%s-%d", stamp, i+1), cityNewYork, cityLosAngeles, day))
		}
		for i, p := range returnPatterns {
			out = append(out, p.flight(fmt.Sprintf("LANY-%s-%d", stamp, i+1), cityLosAngeles, cityNewYork, day))
		}
	}
	return out
}

func (p pattern) flight(id, origin, destination string, day time.Time) travel.Flight {
	dep := day.Add(time.Duration(p.hour)*time.Hour + time.Duration(p.minute)*time.Minute)
	arr := dep.Add(time.Duration(p.duration) * time.Minute)
	return travel.Flight{
		ID:            id,
		Airline:       p.airline,
		Origin:        origin,
		Destination:   destination,
		DepartureTime: dep.Format(timeLayout),
		ArrivalTime:   arr.Format(timeLayout),
		Price:         p.price,
		Duration:      fmt.Sprintf("%dh %02dm", p.duration/60, p.duration%60),
		Stops:         p.stops,
	}
}
