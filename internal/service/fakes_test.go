package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jaimani/ai-travel-demo/internal/config"
	"github.com/jaimani/ai-travel-demo/internal/domain"
	"github.com/jaimani/ai-travel-demo/internal/domain/agent"
	"github.com/jaimani/ai-travel-demo/internal/domain/travel"
	"github.com/jaimani/ai-travel-demo/internal/domain/trip"
	"github.com/jaimani/ai-travel-demo/internal/domain/workflow"
	"github.com/jaimani/ai-travel-demo/internal/port/llm"
	"github.com/jaimani/ai-travel-demo/internal/service"
)

var errModelDown = errors.New("model unavailable")

// scriptedModel replays canned responses in order and records requests.
type scriptedModel struct {
	mu        sync.Mutex
	responses []*llm.Response
	errs      []error
	requests  []*llm.Request
}

func (m *scriptedModel) Complete(_ context.Context, req *llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := len(m.requests)
	m.requests = append(m.requests, req)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.responses) {
		return &llm.Response{Content: "done"}, nil
	}
	return m.responses[i], nil
}

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// pipelineModel plays every pipeline agent, identified by its instructions.
// The search agents call their tool once, then summarise.
type pipelineModel struct {
	mu        sync.Mutex
	failAgent string
	delay     time.Duration
	calls     int
}

func agentOf(req *llm.Request) string {
	system := req.Messages[0].Content
	switch {
	case strings.Contains(system, "travel planning coordinator"):
		return agent.Planner
	case strings.Contains(system, "flights specialist"):
		return agent.Flights
	case strings.Contains(system, "hotels specialist"):
		return agent.Hotels
	case strings.Contains(system, "itinerary specialist"):
		return agent.Itinerary
	}
	return ""
}

func (m *pipelineModel) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	name := agentOf(req)
	if name == m.failAgent {
		return nil, errModelDown
	}
	last := req.Messages[len(req.Messages)-1]
	switch name {
	case agent.Planner:
		return &llm.Response{Content: "planner notes"}, nil
	case agent.Flights:
		if last.Role == llm.RoleTool {
			return &llm.Response{Content: "flights summary"}, nil
		}
		return &llm.Response{ToolCalls: []llm.ToolCall{{
			Name:      service.ToolSearchFlights,
			Arguments: `{"origin":"New York","destination":"Los Angeles","departure_date":"2025-12-15","return_date":"2025-12-20"}`,
		}}}, nil
	case agent.Hotels:
		if last.Role == llm.RoleTool {
			return &llm.Response{Content: "hotels summary"}, nil
		}
		return &llm.Response{ToolCalls: []llm.ToolCall{{
			Name:      service.ToolSearchHotels,
			Arguments: `{"city":"Los Angeles","checkin_date":"2025-12-15","checkout_date":"2025-12-20"}`,
		}}}, nil
	case agent.Itinerary:
		return &llm.Response{Content: "final itinerary"}, nil
	}
	return nil, fmt.Errorf("unexpected agent for system prompt %q", req.Messages[0].Content)
}

func (m *pipelineModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// fakeInventory serves one flight and one hotel for any query.
type fakeInventory struct {
	mu           sync.Mutex
	flightQuery  []travel.FlightQuery
	hotelQueries []travel.HotelQuery
	err          error
}

func (f *fakeInventory) SearchFlights(_ context.Context, q travel.FlightQuery) ([]travel.Flight, error) {
	f.mu.Lock()
	f.flightQuery = append(f.flightQuery, q)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []travel.Flight{{ID: "FL-1", Airline: "Test Air", Origin: q.Origin, Destination: q.Destination, Price: 199}}, nil
}

func (f *fakeInventory) GetFlight(_ context.Context, id string) (*travel.Flight, error) {
	return nil, fmt.Errorf("flight %s: %w", id, domain.ErrNotFound)
}

func (f *fakeInventory) SearchHotels(_ context.Context, q travel.HotelQuery) ([]travel.HotelOffer, error) {
	f.mu.Lock()
	f.hotelQueries = append(f.hotelQueries, q)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []travel.HotelOffer{{Hotel: travel.Hotel{ID: "HT-1", Name: "Test Inn", City: q.City, PricePerNight: 100}, Nights: 5, TotalCost: 500}}, nil
}

func (f *fakeInventory) GetHotel(_ context.Context, id string) (*travel.Hotel, error) {
	return nil, fmt.Errorf("hotel %s: %w", id, domain.ErrNotFound)
}

// fakeChecker grants premium to the listed identities.
type fakeChecker struct {
	premium map[string]bool
	err     error
	calls   int
}

func (c *fakeChecker) HasActiveSubscription(_ context.Context, identity string) (bool, error) {
	c.calls++
	if c.err != nil {
		return false, c.err
	}
	return c.premium[identity], nil
}

// fakeTool records its calls and returns result or err.
type fakeTool struct {
	name   string
	result string
	err    error
	args   []string
}

func (t *fakeTool) Name() string               { return t.name }
func (t *fakeTool) Description() string        { return "test tool" }
func (t *fakeTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (t *fakeTool) Call(_ context.Context, arguments string) (string, error) {
	t.args = append(t.args, arguments)
	return t.result, t.err
}

// collectingFeed records everything a run feed is told.
type collectingFeed struct {
	mu       sync.Mutex
	steps    []workflow.Step
	finished []*workflow.Result
}

func (f *collectingFeed) Sink(string, workflow.TripType) service.StepSink {
	return service.StepSinkFunc(func(_ context.Context, _ int, step workflow.Step) error {
		f.mu.Lock()
		f.steps = append(f.steps, step)
		f.mu.Unlock()
		return nil
	})
}

func (f *collectingFeed) Finished(_ context.Context, res *workflow.Result) {
	f.mu.Lock()
	f.finished = append(f.finished, res)
	f.mu.Unlock()
}

// blockingFeed holds every delivery until release is closed.
type blockingFeed struct {
	collectingFeed
	release chan struct{}
}

func newBlockingFeed() *blockingFeed {
	return &blockingFeed{release: make(chan struct{})}
}

func (f *blockingFeed) Sink(runID string, tripType workflow.TripType) service.StepSink {
	inner := f.collectingFeed.Sink(runID, tripType)
	return service.StepSinkFunc(func(ctx context.Context, seq int, step workflow.Step) error {
		<-f.release
		return inner.Deliver(ctx, seq, step)
	})
}

func (f *blockingFeed) Finished(ctx context.Context, res *workflow.Result) {
	<-f.release
	f.collectingFeed.Finished(ctx, res)
}

func testOrchestrator() config.Orchestrator {
	return config.Orchestrator{
		MaxTurns:          5,
		StageTimeout:      5 * time.Second,
		RunTimeout:        20 * time.Second,
		MaxConcurrentRuns: 2,
		PreviewMessages:   5,
		PreviewChars:      500,
	}
}

func newTestPipeline(t testing.TB, model llm.ChatModel, checker *fakeChecker) *service.PipelineService {
	t.Helper()
	inv := &fakeInventory{}
	defs := agent.TravelDefinitions("test-model", service.NewSearchFlightsTool(inv), service.NewSearchHotelsTool(inv))
	catalog, err := agent.NewCatalog(defs...)
	if err != nil {
		t.Fatal(err)
	}
	if checker == nil {
		checker = &fakeChecker{}
	}
	runner := service.NewAgentRunner(model, nil, testOrchestrator())
	p, err := service.NewPipelineService(catalog, runner, checker, testOrchestrator())
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func singleCityRequest() trip.PlanRequest {
	return trip.PlanRequest{Single: &trip.Request{
		Origin:        "New York",
		Destination:   "Los Angeles",
		DepartureDate: "2025-12-15",
		ReturnDate:    "2025-12-20",
		Budget:        2500,
		Passengers:    1,
	}}
}

func multiCityRequest() trip.PlanRequest {
	return trip.PlanRequest{Multi: &trip.MultiCityRequest{
		Legs: []trip.Leg{
			{Origin: "New York", Destination: "Los Angeles", DepartureDate: "2025-12-15"},
			{Origin: "Los Angeles", Destination: "San Francisco", DepartureDate: "2025-12-18"},
			{Origin: "San Francisco", Destination: "New York", DepartureDate: "2025-12-21"},
		},
		Budget:     5000,
		Passengers: 2,
	}}
}
