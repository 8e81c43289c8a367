package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/goccy/go-json"

	"github.com/jaimani/ai-travel-demo/internal/domain/travel"
	"github.com/jaimani/ai-travel-demo/internal/domain/trip"
	"github.com/jaimani/ai-travel-demo/internal/domain/workflow"
	"github.com/jaimani/ai-travel-demo/internal/logger"
	"github.com/jaimani/ai-travel-demo/internal/port/entitlement"
	"github.com/jaimani/ai-travel-demo/internal/port/search"
	"github.com/jaimani/ai-travel-demo/internal/service"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnChecker reports whether a long-lived connection is up.
type ConnChecker interface {
	IsConnected() bool
}

// Handlers holds the HTTP handler dependencies. DB, Queue and Feed may be
// nil when the component is disabled.
type Handlers struct {
	Pipeline     *service.PipelineService
	Stream       *service.StreamService
	Flights      search.Flights
	Hotels       search.Hotels
	Entitlements *service.EntitlementService
	Feed         interface{ ConnectionCount() int }
	DB           Pinger
	Queue        ConnChecker
}

// planResponse is the plan_trip body. Plan duplicates final_response for
// older clients.
type planResponse struct {
	*workflow.Result
	Plan string `json:"plan,omitempty"`
}

// PlanTrip handles POST /api/v1/planner/plan_trip. Agent failures are
// reported in the body with success=false, not as an HTTP error.
func (h *Handlers) PlanTrip(w http.ResponseWriter, r *http.Request) {
	req, ok := readPlanRequest(w, r)
	if !ok {
		return
	}
	res, err := h.Pipeline.PlanTrip(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, planResponse{Result: res, Plan: res.FinalResponse})
}

// PlanTripStream handles POST /api/v1/planner/plan_trip/stream as
// server-sent events.
func (h *Handlers) PlanTripStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	req, ok := readPlanRequest(w, r)
	if !ok {
		return
	}
	events, err := h.Stream.PlanTripStream(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range events {
		if err := writeSSE(w, ev); err != nil {
			logger.From(r.Context()).Info("plan stream client gone", "error", err)
			return
		}
		flusher.Flush()
	}
}

func writeSSE(w io.Writer, ev workflow.Event) error {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}

// PlanTripWS handles GET /api/v1/planner/ws. The client sends one plan
// request and receives the stream's events as {type, payload} messages.
func (h *Handlers) PlanTripWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		logger.From(r.Context()).Error("websocket accept failed", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()
	conn.SetReadLimit(maxRequestBodySize)
	ctx := r.Context()

	var raw json.RawMessage
	if err := wsjson.Read(ctx, conn, &raw); err != nil {
		_ = conn.Close(websocket.StatusUnsupportedData, "expected a JSON plan request")
		return
	}
	// The client sends nothing more; a close frame or dropped connection
	// cancels ctx and with it the subscription.
	ctx = conn.CloseRead(ctx)

	events, err := h.planEvents(ctx, raw)
	if err != nil {
		_, detail := domainStatus(err)
		_ = wsjson.Write(ctx, conn, workflow.Event{Type: workflow.EventError, Payload: workflow.ErrorPayload{Detail: detail}})
		_ = conn.Close(websocket.StatusPolicyViolation, detail)
		return
	}
	for ev := range events {
		if err := wsjson.Write(ctx, conn, ev); err != nil {
			logger.From(ctx).Info("plan websocket client gone", "error", err)
			return
		}
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Handlers) planEvents(ctx context.Context, raw []byte) (<-chan workflow.Event, error) {
	req, err := trip.ParsePlanRequest(raw)
	if err != nil {
		return nil, err
	}
	return h.Stream.PlanTripStream(ctx, req)
}

// SearchFlights handles GET and POST /api/v1/flights/search.
func (h *Handlers) SearchFlights(w http.ResponseWriter, r *http.Request) {
	var q travel.FlightQuery
	if !decodeQuery(w, r, &q, func(get func(string) string) {
		q = travel.FlightQuery{
			Origin:        get("origin"),
			Destination:   get("destination"),
			DepartureDate: get("departure_date"),
			ReturnDate:    get("return_date"),
		}
	}) {
		return
	}
	if strings.TrimSpace(q.Origin) == "" || strings.TrimSpace(q.Destination) == "" {
		writeError(w, http.StatusBadRequest, "origin and destination are required")
		return
	}
	flights, err := h.Flights.SearchFlights(r.Context(), q)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if flights == nil {
		flights = []travel.Flight{}
	}
	writeJSON(w, http.StatusOK, flights)
}

// GetFlight handles GET /api/v1/flights/{id}.
func (h *Handlers) GetFlight(w http.ResponseWriter, r *http.Request) {
	f, err := h.Flights.GetFlight(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// SearchHotels handles GET and POST /api/v1/hotels/search.
func (h *Handlers) SearchHotels(w http.ResponseWriter, r *http.Request) {
	var q travel.HotelQuery
	var badPrice bool
	if !decodeQuery(w, r, &q, func(get func(string) string) {
		q = travel.HotelQuery{
			City:         get("city"),
			CheckinDate:  get("checkin_date"),
			CheckoutDate: get("checkout_date"),
		}
		if v := get("max_price"); v != "" {
			p, err := strconv.ParseFloat(v, 64)
			badPrice = err != nil
			q.MaxPrice = p
		}
	}) {
		return
	}
	if badPrice {
		writeError(w, http.StatusBadRequest, "max_price must be a number")
		return
	}
	if strings.TrimSpace(q.City) == "" {
		writeError(w, http.StatusBadRequest, "city is required")
		return
	}
	offers, err := h.Hotels.SearchHotels(r.Context(), q)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if offers == nil {
		offers = []travel.HotelOffer{}
	}
	writeJSON(w, http.StatusOK, offers)
}

// GetHotel handles GET /api/v1/hotels/{id}.
func (h *Handlers) GetHotel(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.Hotels.GetHotel(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hotel)
}

// decodeQuery fills dst from a JSON body on POST and from query
// parameters otherwise.
func decodeQuery(w http.ResponseWriter, r *http.Request, dst any, fromQuery func(get func(string) string)) bool {
	if r.Method != http.MethodPost {
		fromQuery(r.URL.Query().Get)
		return true
	}
	data, ok := readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

type subscriptionResponse struct {
	Email                 string     `json:"email"`
	Status                string     `json:"status"`
	Tier                  string     `json:"tier"`
	HasActiveSubscription bool       `json:"has_active_subscription"`
	CurrentPeriodEnd      *time.Time `json:"current_period_end,omitempty"`
}

func newSubscriptionResponse(st entitlement.Status) subscriptionResponse {
	return subscriptionResponse{
		Email:                 st.Email,
		Status:                st.Status,
		Tier:                  st.Tier,
		HasActiveSubscription: st.Active(),
		CurrentPeriodEnd:      st.CurrentPeriodEnd,
	}
}

// SubscriptionStatus handles GET /api/v1/subscription/status/{email}.
func (h *Handlers) SubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(urlParam(r, "email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	st, err := h.Entitlements.Status(r.Context(), email)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSubscriptionResponse(st))
}

type healthResponse struct {
	Status        string            `json:"status"`
	Components    map[string]string `json:"components"`
	WSConnections int               `json:"ws_connections"`
}

// Health handles GET /health. It answers 503 when an enabled dependency
// is unreachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "healthy", Components: map[string]string{
		"postgres": "disabled",
		"nats":     "disabled",
	}}
	if h.DB != nil {
		resp.Components["postgres"] = "ok"
		if err := h.DB.Ping(ctx); err != nil {
			resp.Components["postgres"] = "unreachable"
			resp.Status = "degraded"
		}
	}
	if h.Queue != nil {
		resp.Components["nats"] = "ok"
		if !h.Queue.IsConnected() {
			resp.Components["nats"] = "disconnected"
			resp.Status = "degraded"
		}
	}
	if h.Feed != nil {
		resp.WSConnections = h.Feed.ConnectionCount()
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
