package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/service/cache"
	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/services/association"
	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/services/impact"
	applogger "github.com/sentayhu19/brent-oil-change-point-analysis/pkg/logger"
)

type fakePriceStore struct{ points []models.PricePoint }

func (s *fakePriceStore) Load(ctx context.Context) ([]models.PricePoint, error) {
	return s.points, nil
}

type fakeEventStore struct{ events []models.Event }

func (s *fakeEventStore) Load(ctx context.Context) ([]models.Event, error) {
	return s.events, nil
}

type fakeDetector struct {
	mu       sync.Mutex
	calls    int
	entered  chan struct{}
	block    chan struct{}
	progress func(chain, done, total int)

	estimates []models.ChangePointEstimate
	diag      models.Diagnostics
	err       error
}

func (d *fakeDetector) SetProgress(fn func(chain, done, total int)) { d.progress = fn }

func (d *fakeDetector) Detect(ctx context.Context, prepared *models.PreparedSeries, params models.AnalysisParams) ([]models.ChangePointEstimate, models.Diagnostics, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	if d.entered != nil {
		d.entered <- struct{}{}
	}
	if d.block != nil {
		<-d.block
	}
	if d.progress != nil {
		d.progress(0, 10, 100)
	}
	return d.estimates, d.diag, d.err
}

func (d *fakeDetector) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type fakePublisher struct {
	mu        sync.Mutex
	published int
}

func (p *fakePublisher) PublishResult(ctx context.Context, res *models.AnalysisResult) error {
	p.mu.Lock()
	p.published++
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeMetrics struct{}

func (fakeMetrics) RecordFit(status string, seconds float64) {}
func (fakeMetrics) RecordSamplerIterations(n int)            {}
func (fakeMetrics) RecordCache(hit bool)                     {}
func (fakeMetrics) RecordPublish(status string)              {}
func (fakeMetrics) RecordError(kind string)                  {}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testPoints(n int) []models.PricePoint {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.PricePoint, n)
	for i := range out {
		out[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Price: 50 + float64(i)}
	}
	return out
}

func testParams() models.AnalysisParams {
	return models.AnalysisParams{
		NChangepoints: 1, Draws: 10, Tune: 10, Chains: 1,
		TargetAccept: 0.9, Seed: 1, TargetSeries: "prices",
		ToleranceDays: 30, WindowDays: 5, CredibleInterval: 0.95,
	}
}

func newTestAnalyzer(t *testing.T, det *fakeDetector, pub *fakePublisher) *Analyzer {
	t.Helper()
	return NewAnalyzer(
		&fakePriceStore{points: testPoints(20)},
		&fakeEventStore{events: []models.Event{
			{ID: 1, Date: time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC), Category: "Conflict"},
			{ID: 2, Date: time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC), Category: "OPEC"},
		}},
		det,
		association.New(),
		impact.New(),
		pub,
		fakeMetrics{},
		cache.NewTTLCache(),
		testLogger(t),
	)
}

func detectorEstimates() []models.ChangePointEstimate {
	return []models.ChangePointEstimate{{
		ID:          1,
		Date:        time.Date(2020, 1, 11, 0, 0, 0, 0, time.UTC),
		MedianIndex: 10,
	}}
}

func TestAnalyzerInitAndState(t *testing.T) {
	det := &fakeDetector{estimates: detectorEstimates(), diag: models.Diagnostics{Converged: true}}
	a := newTestAnalyzer(t, det, &fakePublisher{})

	if got := a.State(); got != StateUninitialized {
		t.Fatalf("state before init = %v", got)
	}
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if got := a.State(); got != StateDataPrepared {
		t.Fatalf("state after init = %v", got)
	}

	s, err := a.Series()
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if s.Prices.Len() != 20 {
		t.Fatalf("series len = %d", s.Prices.Len())
	}

	evs, err := a.Events(time.Time{}, time.Time{}, "OPEC")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(evs) != 1 || evs[0].ID != 2 {
		t.Fatalf("category filter returned %+v", evs)
	}
}

func TestAnalyzerRunBeforeInit(t *testing.T) {
	a := newTestAnalyzer(t, &fakeDetector{}, &fakePublisher{})
	if _, err := a.Run(context.Background(), testParams()); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAnalyzerResultBeforeRun(t *testing.T) {
	a := newTestAnalyzer(t, &fakeDetector{}, &fakePublisher{})
	if _, err := a.Result(); !errors.Is(err, models.ErrModelNotFitted) {
		t.Fatalf("expected ErrModelNotFitted, got %v", err)
	}
}

func TestAnalyzerRunLifecycle(t *testing.T) {
	det := &fakeDetector{estimates: detectorEstimates(), diag: models.Diagnostics{Converged: true}}
	pub := &fakePublisher{}
	a := newTestAnalyzer(t, det, pub)
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	res, err := a.Run(context.Background(), testParams())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.RunID == "" {
		t.Fatalf("empty run id")
	}
	if len(res.ChangePoints) != 1 {
		t.Fatalf("change points = %d", len(res.ChangePoints))
	}
	if len(res.Associations) != 1 || len(res.Impacts) != 1 {
		t.Fatalf("associations=%d impacts=%d", len(res.Associations), len(res.Impacts))
	}
	if len(res.Regimes) == 0 {
		t.Fatalf("no regimes")
	}
	if got := a.State(); got != StateSummarized {
		t.Fatalf("state after run = %v", got)
	}

	stored, err := a.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if stored.RunID != res.RunID {
		t.Fatalf("stored run %q != returned %q", stored.RunID, res.RunID)
	}
	if pub.published != 1 {
		t.Fatalf("published %d times", pub.published)
	}
}

func TestAnalyzerSingleFlight(t *testing.T) {
	det := &fakeDetector{
		estimates: detectorEstimates(),
		entered:   make(chan struct{}, 1),
		block:     make(chan struct{}),
	}
	a := newTestAnalyzer(t, det, &fakePublisher{})
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	type outcome struct {
		res *models.AnalysisResult
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		r, err := a.Run(context.Background(), testParams())
		first <- outcome{r, err}
	}()
	<-det.entered // sampler running, flight registered

	second := make(chan outcome, 1)
	go func() {
		r, err := a.Run(context.Background(), testParams())
		second <- outcome{r, err}
	}()
	time.Sleep(20 * time.Millisecond)
	close(det.block)

	o1 := <-first
	o2 := <-second
	if o1.err != nil || o2.err != nil {
		t.Fatalf("errors: %v / %v", o1.err, o2.err)
	}
	if det.callCount() != 1 {
		t.Fatalf("detector ran %d times, want 1", det.callCount())
	}
	if o1.res.RunID != o2.res.RunID {
		t.Fatalf("joined run got a different result: %q vs %q", o1.res.RunID, o2.res.RunID)
	}
}

func TestAnalyzerCachedRun(t *testing.T) {
	det := &fakeDetector{estimates: detectorEstimates()}
	a := newTestAnalyzer(t, det, &fakePublisher{})
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	params := testParams()
	res1, err := a.Run(context.Background(), params)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	res2, err := a.Run(context.Background(), params)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if det.callCount() != 1 {
		t.Fatalf("detector ran %d times, cache should serve the repeat", det.callCount())
	}
	if res1.RunID != res2.RunID {
		t.Fatalf("cached run id %q != original %q", res2.RunID, res1.RunID)
	}

	// different parameters miss the cache
	params.NChangepoints = 2
	if _, err := a.Run(context.Background(), params); err != nil {
		t.Fatalf("third run: %v", err)
	}
	if det.callCount() != 2 {
		t.Fatalf("detector ran %d times, want 2", det.callCount())
	}
}

func TestAnalyzerRunError(t *testing.T) {
	det := &fakeDetector{err: models.ErrInvalidInput}
	a := newTestAnalyzer(t, det, &fakePublisher{})
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, err := a.Run(context.Background(), testParams()); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected detector error, got %v", err)
	}
	if got := a.State(); got != StateDataPrepared {
		t.Fatalf("state after failed run = %v, want data_prepared", got)
	}
	if _, err := a.Result(); !errors.Is(err, models.ErrModelNotFitted) {
		t.Fatalf("failed run must not store a result, got %v", err)
	}
}

func TestAnalyzerProgressFanOut(t *testing.T) {
	det := &fakeDetector{estimates: detectorEstimates()}
	a := newTestAnalyzer(t, det, &fakePublisher{})
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	ch, cancel := a.Subscribe()
	defer cancel()

	res, err := a.Run(context.Background(), testParams())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.RunID != res.RunID {
			t.Fatalf("progress run id %q, want %q", ev.RunID, res.RunID)
		}
		if ev.Done != 10 || ev.Total != 100 {
			t.Fatalf("progress %d/%d, want 10/100", ev.Done, ev.Total)
		}
	default:
		t.Fatalf("no progress event received")
	}
}
