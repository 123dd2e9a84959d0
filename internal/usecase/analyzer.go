package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
	domrepo "github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/repository"
	domsvc "github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/service"
	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/service/cache"
	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/services/series"
	applogger "github.com/sentayhu19/brent-oil-change-point-analysis/pkg/logger"
)

// State tracks how far the analyzer has progressed.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateDataPrepared  State = "data_prepared"
	StateModelBuilt    State = "model_built"
	StateFitted        State = "fitted"
	StateSummarized    State = "summarized"
)

// resultTTL bounds how long a cached analysis stays valid.
const resultTTL = 24 * time.Hour

// ProgressEvent is one sampler progress update fanned out to subscribers.
type ProgressEvent struct {
	RunID string `json:"run_id"`
	Chain int    `json:"chain"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

// flight is one in-progress fit. Concurrent Run calls share it.
type flight struct {
	done chan struct{}
	res  *models.AnalysisResult
	err  error
}

// Analyzer owns the loaded data and the lifecycle of analysis runs.
// It replaces ad-hoc recomputation with an explicit state machine: data
// is prepared once at startup, fits happen only on explicit request,
// and read paths serve the latest completed result.
type Analyzer struct {
	prices    domrepo.PriceStore
	events    domrepo.EventStore
	detector  domsvc.ChangePointDetector
	assoc     domsvc.EventAssociator
	impact    domsvc.ImpactQuantifier
	publisher domrepo.Publisher
	metrics   domrepo.Metrics
	cache     cache.BytesCache
	logger    *applogger.Logger

	mu       sync.RWMutex
	state    State
	prepared *models.PreparedSeries
	catalog  []models.Event
	result   *models.AnalysisResult
	inflight *flight

	subMu sync.Mutex
	subs  map[int]chan ProgressEvent
	nextS int
}

func NewAnalyzer(
	prices domrepo.PriceStore,
	events domrepo.EventStore,
	detector domsvc.ChangePointDetector,
	assoc domsvc.EventAssociator,
	impact domsvc.ImpactQuantifier,
	publisher domrepo.Publisher,
	metrics domrepo.Metrics,
	c cache.BytesCache,
	logger *applogger.Logger,
) *Analyzer {
	return &Analyzer{
		prices:    prices,
		events:    events,
		detector:  detector,
		assoc:     assoc,
		impact:    impact,
		publisher: publisher,
		metrics:   metrics,
		cache:     c,
		logger:    logger,
		state:     StateUninitialized,
		subs:      make(map[int]chan ProgressEvent),
	}
}

// Init loads the price series and event catalog and prepares the series.
func (a *Analyzer) Init(ctx context.Context) error {
	points, err := a.prices.Load(ctx)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}
	prepared, err := series.Prepare(points)
	if err != nil {
		return fmt.Errorf("prepare series: %w", err)
	}
	catalog, err := a.events.Load(ctx)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	a.mu.Lock()
	a.prepared = prepared
	a.catalog = catalog
	a.state = StateDataPrepared
	a.mu.Unlock()

	a.logger.Info("analyzer initialized",
		applogger.Int("observations", prepared.Prices.Len()),
		applogger.Int("dropped_points", prepared.Dropped),
		applogger.Int("events", len(catalog)),
	)
	return nil
}

// State returns the current lifecycle state.
func (a *Analyzer) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Series returns the prepared series, or an error before Init.
func (a *Analyzer) Series() (*models.PreparedSeries, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.prepared == nil {
		return nil, fmt.Errorf("%w: data not loaded", models.ErrInvalidInput)
	}
	return a.prepared, nil
}

// Events returns catalog events, optionally filtered by period and category.
func (a *Analyzer) Events(from, to time.Time, category string) ([]models.Event, error) {
	a.mu.RLock()
	catalog := a.catalog
	a.mu.RUnlock()
	if catalog == nil {
		return nil, fmt.Errorf("%w: data not loaded", models.ErrInvalidInput)
	}
	filtered := domrepo.FilterEventsByPeriod(catalog, from, to)
	if category == "" {
		return filtered, nil
	}
	out := make([]models.Event, 0, len(filtered))
	for _, e := range filtered {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out, nil
}

// Result returns the latest completed analysis, or ErrModelNotFitted
// when no run has finished yet.
func (a *Analyzer) Result() (*models.AnalysisResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.result == nil {
		return nil, fmt.Errorf("%w: no completed run", models.ErrModelNotFitted)
	}
	return a.result, nil
}

// Run executes a full analysis with the given parameters. At most one
// fit is in flight; a concurrent call joins it and receives the shared
// result instead of starting a second sampler.
func (a *Analyzer) Run(ctx context.Context, params models.AnalysisParams) (*models.AnalysisResult, error) {
	a.mu.Lock()
	if a.prepared == nil {
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: data not loaded", models.ErrInvalidInput)
	}
	if f := a.inflight; f != nil {
		a.mu.Unlock()
		select {
		case <-f.done:
			return f.res, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f := &flight{done: make(chan struct{})}
	a.inflight = f
	prepared := a.prepared
	catalog := a.catalog
	a.mu.Unlock()

	res, err := a.execute(ctx, prepared, catalog, params)

	a.mu.Lock()
	f.res, f.err = res, err
	a.inflight = nil
	if err == nil {
		a.result = res
		a.state = StateSummarized
	}
	a.mu.Unlock()
	close(f.done)
	return res, err
}

func (a *Analyzer) execute(ctx context.Context, prepared *models.PreparedSeries, catalog []models.Event, params models.AnalysisParams) (*models.AnalysisResult, error) {
	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())

	if cached := a.cachedResult(params); cached != nil {
		a.metrics.RecordCache(true)
		a.logger.Info("serving cached analysis", applogger.String("run_id", cached.RunID))
		return cached, nil
	}
	a.metrics.RecordCache(false)

	a.setState(StateModelBuilt)
	a.logger.Info("analysis run started",
		applogger.String("run_id", runID),
		applogger.Int("n_changepoints", params.NChangepoints),
		applogger.String("target_series", params.TargetSeries),
	)

	start := time.Now()
	estimates, diag, err := a.detect(ctx, runID, prepared, params)
	if err != nil {
		a.metrics.RecordFit("error", time.Since(start).Seconds())
		a.metrics.RecordError("fit")
		a.setState(StateDataPrepared)
		return nil, err
	}
	a.metrics.RecordFit("ok", time.Since(start).Seconds())
	a.metrics.RecordSamplerIterations(params.Chains * (params.Draws + params.Tune))
	a.setState(StateFitted)

	associations := a.assoc.Associate(estimates, catalog, params.ToleranceDays, 0)
	impacts := a.impact.Quantify(prepared.Prices, estimates, params.WindowDays)
	regimes := series.Regimes(prepared.Prices, estimates)

	res := &models.AnalysisResult{
		RunID:        runID,
		CompletedAt:  time.Now().UTC(),
		Params:       params,
		ChangePoints: estimates,
		Associations: associations,
		Impacts:      impacts,
		Regimes:      regimes,
		Diagnostics:  diag,
	}

	a.storeResult(params, res)
	a.publish(ctx, res)

	a.logger.Info("analysis run finished",
		applogger.String("run_id", runID),
		applogger.Int("change_points", len(res.ChangePoints)),
		applogger.Bool("converged", diag.Converged),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return res, nil
}

// detect runs the detector with progress fan-out wired in.
func (a *Analyzer) detect(ctx context.Context, runID string, prepared *models.PreparedSeries, params models.AnalysisParams) ([]models.ChangePointEstimate, models.Diagnostics, error) {
	type progressDetector interface {
		SetProgress(func(chain, done, total int))
	}
	if pd, ok := a.detector.(progressDetector); ok {
		pd.SetProgress(func(chain, done, total int) {
			a.broadcast(ProgressEvent{RunID: runID, Chain: chain, Done: done, Total: total})
		})
	}
	return a.detector.Detect(ctx, prepared, params)
}

func (a *Analyzer) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Subscribe registers a progress listener. The returned cancel must be
// called when the listener goes away; slow listeners drop events rather
// than stalling the sampler.
func (a *Analyzer) Subscribe() (<-chan ProgressEvent, func()) {
	a.subMu.Lock()
	id := a.nextS
	a.nextS++
	ch := make(chan ProgressEvent, 16)
	a.subs[id] = ch
	a.subMu.Unlock()

	cancel := func() {
		a.subMu.Lock()
		if c, ok := a.subs[id]; ok {
			delete(a.subs, id)
			close(c)
		}
		a.subMu.Unlock()
	}
	return ch, cancel
}

func (a *Analyzer) broadcast(ev ProgressEvent) {
	a.subMu.Lock()
	for _, ch := range a.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	a.subMu.Unlock()
}

func (a *Analyzer) cacheKey(p models.AnalysisParams) string {
	b, _ := json.Marshal(p)
	return "analysis:" + string(b)
}

func (a *Analyzer) cachedResult(p models.AnalysisParams) *models.AnalysisResult {
	if a.cache == nil {
		return nil
	}
	b, ok, err := a.cache.GetBytes(a.cacheKey(p))
	if err != nil || !ok {
		return nil
	}
	var res models.AnalysisResult
	if err := json.Unmarshal(b, &res); err != nil {
		return nil
	}
	return &res
}

func (a *Analyzer) storeResult(p models.AnalysisParams, res *models.AnalysisResult) {
	if a.cache == nil {
		return
	}
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := a.cache.SetBytes(a.cacheKey(p), b, resultTTL); err != nil {
		a.logger.Warn("result cache write failed", applogger.Error(err))
	}
}

func (a *Analyzer) publish(ctx context.Context, res *models.AnalysisResult) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.PublishResult(ctx, res); err != nil {
		a.metrics.RecordPublish("error")
		a.logger.Warn("result publish failed", applogger.Error(err))
		return
	}
	a.metrics.RecordPublish("ok")
}
