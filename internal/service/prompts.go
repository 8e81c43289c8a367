package service

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/jaimani/ai-travel-demo/internal/domain/trip"
	"github.com/jaimani/ai-travel-demo/internal/domain/workflow"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var promptTemplates = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"money": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	"join":  strings.Join,
}).ParseFS(templateFS, "templates/*.tmpl"))

// stagePrompts holds the two prompts of a run: the request every search
// stage receives and the input of the itinerary stage.
type stagePrompts struct {
	tripType workflow.TripType
	request  string
	budget   float64
	itinTmpl string
}

type multiRequestData struct {
	Legs        []trip.Leg
	Origin      string
	HotelCities []string
	Budget      float64
	Passengers  int
}

type itineraryData struct {
	Request string
	Flights string
	Hotels  string
	Planner string
	Budget  float64
}

// buildPrompts renders the user request for a validated plan request.
func buildPrompts(req trip.PlanRequest) (*stagePrompts, error) {
	if req.Multi != nil {
		m := req.Multi
		text, err := render("request_multi.tmpl", multiRequestData{
			Legs:        m.Legs,
			Origin:      m.Origin(),
			HotelCities: m.DestinationCities(),
			Budget:      m.Budget,
			Passengers:  m.Passengers,
		})
		if err != nil {
			return nil, err
		}
		return &stagePrompts{
			tripType: workflow.TripMultiCity, request: text, budget: m.Budget, itinTmpl: "itinerary_multi.tmpl",
		}, nil
	}

	text, err := render("request_single.tmpl", req.Single)
	if err != nil {
		return nil, err
	}
	return &stagePrompts{
		tripType: workflow.TripSingleCity, request: text, budget: req.Single.Budget, itinTmpl: "itinerary_single.tmpl",
	}, nil
}

// itinerary renders the itinerary stage input from the three prior summaries.
func (p *stagePrompts) itinerary(planner, flights, hotels string) (string, error) {
	return render(p.itinTmpl, itineraryData{
		Request: p.request, Flights: flights, Hotels: hotels, Planner: planner, Budget: p.budget,
	})
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
