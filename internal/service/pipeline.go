package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/semaphore"

	cfotel "github.com/jaimani/ai-travel-demo/internal/adapter/otel"
	"github.com/jaimani/ai-travel-demo/internal/config"
	"github.com/jaimani/ai-travel-demo/internal/domain"
	"github.com/jaimani/ai-travel-demo/internal/domain/agent"
	"github.com/jaimani/ai-travel-demo/internal/domain/trip"
	"github.com/jaimani/ai-travel-demo/internal/domain/workflow"
	"github.com/jaimani/ai-travel-demo/internal/logger"
	"github.com/jaimani/ai-travel-demo/internal/middleware"
	"github.com/jaimani/ai-travel-demo/internal/port/entitlement"
)

// PipelineService runs the fixed Planner, Flights, Hotels, Itinerary
// sequence for one trip request.
type PipelineService struct {
	catalog      *agent.Catalog
	runner       *AgentRunner
	checker      entitlement.Checker
	slots        *semaphore.Weighted
	stageTimeout time.Duration
	runTimeout   time.Duration
	feed         RunFeed
	feeds        sync.WaitGroup
	metrics      *cfotel.Metrics
}

// NewPipelineService creates the orchestrator. The catalog must hold all
// four pipeline agents.
func NewPipelineService(
	catalog *agent.Catalog,
	runner *AgentRunner,
	checker entitlement.Checker,
	orch config.Orchestrator,
) (*PipelineService, error) {
	if err := catalog.Require(agent.Planner, agent.Flights, agent.Hotels, agent.Itinerary); err != nil {
		return nil, err
	}
	if checker == nil {
		return nil, fmt.Errorf("pipeline: entitlement checker is required")
	}
	return &PipelineService{
		catalog:      catalog,
		runner:       runner,
		checker:      checker,
		slots:        semaphore.NewWeighted(orch.MaxConcurrentRuns),
		stageTimeout: orch.StageTimeout,
		runTimeout:   orch.RunTimeout,
	}, nil
}

// SetFeed attaches a feed that observes every run. Steps reach the feed
// asynchronously; see Wait.
func (s *PipelineService) SetFeed(f RunFeed) { s.feed = f }

// Wait blocks until every run's feed deliveries have drained or ctx is done.
func (s *PipelineService) Wait(ctx context.Context) error {
	return waitGroup(ctx, &s.feeds)
}

// SetMetrics enables metric recording.
func (s *PipelineService) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

// PlanTrip validates req, applies the multi-city gate and runs the pipeline
// on the calling goroutine. Validation and entitlement failures return an
// error; agent failures return a result with Success false.
func (s *PipelineService) PlanTrip(ctx context.Context, req trip.PlanRequest) (*workflow.Result, error) {
	prompts, err := s.admit(ctx, &req)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, prompts, nil), nil
}

// admit performs every check that must pass before any agent runs.
func (s *PipelineService) admit(ctx context.Context, req *trip.PlanRequest) (*stagePrompts, error) {
	err := req.Validate()
	if err == nil && req.IsMultiCity() {
		err = s.checkEntitlement(ctx)
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.RunsRejected.Add(ctx, 1, metric.WithAttributes(
				attribute.Bool("multi_city", req.IsMultiCity()),
			))
		}
		return nil, err
	}
	return buildPrompts(*req)
}

func (s *PipelineService) checkEntitlement(ctx context.Context) error {
	identity := middleware.IdentityFromContext(ctx)
	if identity == "" {
		return fmt.Errorf("%w: sign in with a premium account to plan multi-city trips", domain.ErrSubscriptionRequired)
	}
	ok, err := s.checker.HasActiveSubscription(ctx, identity)
	if err != nil {
		return fmt.Errorf("entitlement check: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: multi-city trips require an active premium subscription", domain.ErrSubscriptionRequired)
	}
	return nil
}

// execute runs the four stages. It always returns a result; sink, when
// non-nil, sees every step as it is recorded.
func (s *PipelineService) execute(ctx context.Context, p *stagePrompts, sink StepSink) *workflow.Result {
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.From(ctx)

	var sinks []StepSink
	if sink != nil {
		sinks = append(sinks, sink)
	}
	var relay *feedRelay
	if s.feed != nil {
		relay = startFeedRelay(ctx, s.feed, runID, p.tripType, s.metrics, &s.feeds)
		sinks = append(sinks, relay)
	}
	rec := NewEventRecorder(sinks...)
	rec.SetMetrics(s.metrics)

	res := &workflow.Result{RunID: runID, TripType: p.tripType}

	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	if err := s.slots.Acquire(ctx, 1); err != nil {
		return s.finish(ctx, res, rec, relay, nil, fmt.Errorf("waiting for a run slot: %w", err))
	}
	defer s.slots.Release(1)

	ctx, span := cfotel.StartRunSpan(ctx, runID, string(p.tripType))
	defer span.End()

	attrs := metric.WithAttributes(attribute.String("trip_type", string(p.tripType)))
	if s.metrics != nil {
		s.metrics.RunsStarted.Add(ctx, 1, attrs)
	}
	start := time.Now()
	log.Info("run started", "trip_type", p.tripType)

	var transcript []workflow.Message
	final, err := s.runStages(ctx, p, rec, &transcript)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	res.FinalResponse = final

	if s.metrics != nil {
		s.metrics.RunDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
	return s.finish(ctx, res, rec, relay, transcript, err)
}

func (s *PipelineService) finish(ctx context.Context, res *workflow.Result, rec *EventRecorder, relay *feedRelay, transcript []workflow.Message, err error) *workflow.Result {
	res.Steps = rec.Steps()
	res.Transcript = transcript
	if res.Transcript == nil {
		res.Transcript = []workflow.Message{}
	}
	attrs := metric.WithAttributes(attribute.String("trip_type", string(res.TripType)))

	if err != nil {
		res.Success = false
		res.FinalResponse = ""
		res.Error = err.Error()
		logger.From(ctx).Warn("run failed", "error", err, "steps", len(res.Steps))
		if s.metrics != nil {
			s.metrics.RunsFailed.Add(ctx, 1, attrs)
		}
	} else {
		res.Success = true
		logger.From(ctx).Info("run completed", "steps", len(res.Steps))
		if s.metrics != nil {
			s.metrics.RunsCompleted.Add(ctx, 1, attrs)
		}
	}

	if relay != nil {
		relay.finish(res)
	}
	return res
}

// runStages executes the pipeline, appending each stage's transcript in
// execution order. The first failing stage ends the run.
func (s *PipelineService) runStages(ctx context.Context, p *stagePrompts, rec *EventRecorder, transcript *[]workflow.Message) (string, error) {
	stage := func(name, prompt string) (string, error) {
		def, _ := s.catalog.Get(name)
		sctx := ctx
		if s.stageTimeout > 0 {
			var cancel context.CancelFunc
			sctx, cancel = context.WithTimeout(ctx, s.stageTimeout)
			defer cancel()
		}
		sctx, span := cfotel.StartStageSpan(sctx, name, def.Model)
		defer span.End()

		start := time.Now()
		out, err := s.runner.Run(sctx, def, prompt, rec)
		*transcript = append(*transcript, out.Transcript...)
		if s.metrics != nil {
			s.metrics.StageDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
				attribute.String("agent", name),
				attribute.Bool("success", err == nil),
			))
		}
		if err != nil {
			span.RecordError(err)
			return "", fmt.Errorf("%s failed: %w", name, err)
		}
		logger.From(ctx).Debug("stage completed", "agent", name, "duration", time.Since(start))
		return out.Output, nil
	}

	planner, err := stage(agent.Planner, p.request)
	if err != nil {
		return "", err
	}

	rec.Record(ctx, workflow.Handoff(agent.Planner, agent.Flights, p.request))
	flights, err := stage(agent.Flights, p.request)
	if err != nil {
		return "", err
	}

	rec.Record(ctx, workflow.Handoff(agent.Flights, agent.Hotels, p.request))
	hotels, err := stage(agent.Hotels, p.request)
	if err != nil {
		return "", err
	}

	itinerary, err := p.itinerary(planner, flights, hotels)
	if err != nil {
		return "", err
	}
	rec.Record(ctx, workflow.Handoff(agent.Hotels, agent.Itinerary, itinerary))
	return stage(agent.Itinerary, itinerary)
}
