package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/service/metrics"
	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/service/ratelimit"
	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/usecase"
	xhttp "github.com/sentayhu19/brent-oil-change-point-analysis/pkg/http"
	xlogger "github.com/sentayhu19/brent-oil-change-point-analysis/pkg/logger"
)

// AnalysisHandler exposes the analysis lifecycle over REST. Read paths
// serve the latest completed result; computation happens only through
// POST /api/run.
type AnalysisHandler struct {
	logger   *xlogger.Logger
	analyzer *usecase.Analyzer
	rl       *ratelimit.Limiter

	// RunPerMinute caps POST /run per remote address. Zero disables.
	RunPerMinute int
}

func NewAnalysisHandler(logger *xlogger.Logger, analyzer *usecase.Analyzer) *AnalysisHandler {
	metrics.Register()
	return &AnalysisHandler{logger: logger, analyzer: analyzer, rl: ratelimit.New(), RunPerMinute: 6}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/historical-data", h.HistoricalData)
	g.GET("/change-points", h.ChangePoints)
	g.GET("/events", h.Events)
	g.GET("/event-associations", h.EventAssociations)
	g.GET("/impact-analysis", h.ImpactAnalysis)
	g.GET("/model-diagnostics", h.ModelDiagnostics)
	g.GET("/regimes", h.Regimes)
	g.GET("/summary", h.Summary)
	g.POST("/run", h.Run)

	e.GET("/ws/progress", h.Progress)
}

func (h *AnalysisHandler) Health(c echo.Context) error {
	payload := map[string]interface{}{
		"status": "healthy",
		"state":  h.analyzer.State(),
		"time":   time.Now().UTC(),
	}
	if prepared, err := h.analyzer.Series(); err == nil {
		payload["observations"] = prepared.Prices.Len()
		payload["start_date"] = prepared.Prices.Start()
		payload["end_date"] = prepared.Prices.End()
	}
	return xhttp.SuccessResponse(c, payload)
}

// pricePointOut is one row of /historical-data.
type pricePointOut struct {
	Date      time.Time `json:"date"`
	Price     float64   `json:"price"`
	LogReturn *float64  `json:"log_return,omitempty"`
}

func (h *AnalysisHandler) HistoricalData(c echo.Context) error {
	prepared, err := h.analyzer.Series()
	if err != nil {
		return h.fail(c, "historical-data", err)
	}
	from, to, err := parsePeriod(c)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	returnAt := make(map[time.Time]float64, len(prepared.Returns.Returns))
	for i, d := range prepared.Returns.Dates {
		returnAt[d] = prepared.Returns.Returns[i]
	}

	rows := make([]pricePointOut, 0, prepared.Prices.Len())
	for i, d := range prepared.Prices.Dates {
		if !from.IsZero() && d.Before(from) {
			continue
		}
		if !to.IsZero() && d.After(to) {
			continue
		}
		row := pricePointOut{Date: d, Price: prepared.Prices.Prices[i]}
		if r, ok := returnAt[d]; ok {
			v := r
			row.LogReturn = &v
		}
		rows = append(rows, row)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *AnalysisHandler) ChangePoints(c echo.Context) error {
	res, err := h.analyzer.Result()
	if err != nil {
		return h.fail(c, "change-points", err)
	}
	return xhttp.ListResponse(c, res.ChangePoints, int64(len(res.ChangePoints)))
}

func (h *AnalysisHandler) Events(c echo.Context) error {
	from, to, err := parsePeriod(c)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	events, err := h.analyzer.Events(from, to, c.QueryParam("category"))
	if err != nil {
		return h.fail(c, "events", err)
	}
	return xhttp.ListResponse(c, events, int64(len(events)))
}

func (h *AnalysisHandler) EventAssociations(c echo.Context) error {
	res, err := h.analyzer.Result()
	if err != nil {
		return h.fail(c, "event-associations", err)
	}
	return xhttp.ListResponse(c, res.Associations, int64(len(res.Associations)))
}

func (h *AnalysisHandler) ImpactAnalysis(c echo.Context) error {
	res, err := h.analyzer.Result()
	if err != nil {
		return h.fail(c, "impact-analysis", err)
	}
	return xhttp.ListResponse(c, res.Impacts, int64(len(res.Impacts)))
}

func (h *AnalysisHandler) ModelDiagnostics(c echo.Context) error {
	res, err := h.analyzer.Result()
	if err != nil {
		return h.fail(c, "model-diagnostics", err)
	}
	return xhttp.SuccessResponse(c, res.Diagnostics)
}

func (h *AnalysisHandler) Regimes(c echo.Context) error {
	res, err := h.analyzer.Result()
	if err != nil {
		return h.fail(c, "regimes", err)
	}
	return xhttp.ListResponse(c, res.Regimes, int64(len(res.Regimes)))
}

func (h *AnalysisHandler) Summary(c echo.Context) error {
	res, err := h.analyzer.Result()
	if err != nil {
		return h.fail(c, "summary", err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"state":  h.analyzer.State(),
		"result": res,
	})
}

func (h *AnalysisHandler) Run(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("run").Observe(time.Since(start).Seconds()) }()

	if h.RunPerMinute > 0 && !h.rl.Allow(c.RealIP()+":run", float64(h.RunPerMinute), float64(h.RunPerMinute)/60) {
		h.logger.Warn("run rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	req := &models.RunRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analyzer.Run(c.Request().Context(), req.Params())
	if err != nil {
		h.logger.Error("run usecase error", xlogger.Error(err))
		return h.fail(c, "run", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// fail maps domain errors onto the AppError taxonomy.
func (h *AnalysisHandler) fail(c echo.Context, op string, err error) error {
	metrics.APIErrors.WithLabelValues(op).Inc()
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()).WithError(err))
	case errors.Is(err, models.ErrModelNotFitted), errors.Is(err, models.ErrModelNotBuilt):
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_NO_RESULT", "", err.Error(), http.StatusConflict).WithError(err))
	default:
		h.logger.Error(op+" error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError(err.Error()).WithError(err))
	}
}

// parsePeriod reads optional start/end query params as ISO dates.
func parsePeriod(c echo.Context) (from, to time.Time, err error) {
	if s := c.QueryParam("start"); s != "" {
		from, err = xhttp.ParseISODate(s)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("start must be YYYY-MM-DD")
		}
	}
	if s := c.QueryParam("end"); s != "" {
		to, err = xhttp.ParseISODate(s)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("end must be YYYY-MM-DD")
		}
	}
	return from, to, nil
}
