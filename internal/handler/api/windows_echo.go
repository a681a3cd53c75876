package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	models "TrueVol/internal/domain/models"
	domrepo "TrueVol/internal/domain/repository"
	icache "TrueVol/internal/service/cache"
	"TrueVol/internal/service/metrics"
	"TrueVol/internal/service/ratelimit"
	"TrueVol/internal/usecase"
	xhttp "TrueVol/pkg/http"
	xlogger "TrueVol/pkg/logger"

	"github.com/labstack/echo/v4"
)

// WindowsEchoHandler exposes the window analysis API over Echo.
type WindowsEchoHandler struct {
	logger   *xlogger.Logger
	analyze  *usecase.AnalyzeUseCase
	all      *usecase.AnalyzeAllUseCase
	backfill *usecase.BackfillUseCase
	exports  *usecase.ExportUseCase
	cache    icache.BytesCache
	rl       *ratelimit.Limiter
}

func NewWindowsEchoHandler(
	logger *xlogger.Logger,
	analyze *usecase.AnalyzeUseCase,
	all *usecase.AnalyzeAllUseCase,
	backfill *usecase.BackfillUseCase,
	exports *usecase.ExportUseCase,
) *WindowsEchoHandler {
	metrics.Register()
	return &WindowsEchoHandler{
		logger:   logger,
		analyze:  analyze,
		all:      all,
		backfill: backfill,
		exports:  exports,
		rl:       ratelimit.New(),
	}
}

// SetCache injects a response cache.
func (h *WindowsEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *WindowsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/windows", h.Windows)
	g.GET("/windows/all", h.WindowsAll)
	g.GET("/windows.csv", h.WindowsCSV)
	g.GET("/policies", h.Policies)
	g.POST("/backfill", h.Backfill)
	g.POST("/exports", h.Export)
}

func (h *WindowsEchoHandler) Windows(c echo.Context) error {
	start := time.Now()
	endpoint := "windows"
	defer func() { metrics.WindowsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.WindowsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":windows", 5, 2) {
		h.logger.Warn("windows rate_limited", xlogger.String("remote", c.RealIP()))
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}

	cacheKey := fmt.Sprintf("windows:%s:%s:%s:%d:%g:%s",
		req.Symbol, req.Policy, req.Granularity, req.Days, req.MinVol, req.Direction)
	if b, ok := h.cached(cacheKey); ok {
		return xhttp.SuccessResponse(c, json.RawMessage(b))
	}

	res, err := h.analyze.Analyze(c.Request().Context(), usecase.AnalyzeParams{
		Symbol:      req.Symbol,
		Policy:      models.PolicyKind(req.Policy),
		Days:        req.Days,
		Granularity: domrepo.NormalizeGranularity(req.Granularity),
		MinVol:      req.MinVol,
		Mode:        models.DirectionMode(req.Direction),
	})
	if err != nil {
		metrics.WindowsErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("windows usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	h.store(cacheKey, res)
	return xhttp.SuccessResponse(c, res)
}

func (h *WindowsEchoHandler) WindowsAll(c echo.Context) error {
	start := time.Now()
	endpoint := "windows_all"
	defer func() { metrics.WindowsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.WindowsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.all.AnalyzeAll(c.Request().Context(), usecase.AnalyzeAllParams{
		Symbol:      req.Symbol,
		Days:        req.Days,
		Granularity: domrepo.NormalizeGranularity(req.Granularity),
		MinVol:      req.MinVol,
	})
	if err != nil {
		metrics.WindowsErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("windows_all usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *WindowsEchoHandler) WindowsCSV(c echo.Context) error {
	start := time.Now()
	endpoint := "windows_csv"
	defer func() { metrics.WindowsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ExportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	// Render into a buffer first: tables are small, and a failed analyze
	// must produce an error status, not a 200 with a truncated body.
	var buf bytes.Buffer
	err := h.exports.Render(c.Request().Context(), &buf, usecase.ExportParams{
		Symbol:      req.Symbol,
		Policy:      req.Policy,
		Days:        req.Days,
		Granularity: req.Granularity,
		MinVol:      req.MinVol,
	})
	if err != nil {
		metrics.WindowsErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("windows_csv error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="windows.csv"`)
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

// Policies describes the available window policies and their thresholds.
func (h *WindowsEchoHandler) Policies(c echo.Context) error {
	type policyInfo struct {
		Kind    string `json:"kind"`
		MinBars int    `json:"min_bars"`
	}
	kinds := []models.PolicyKind{
		models.PolicyDailySession,
		models.PolicyWeeklyAnchor,
		models.PolicyWeeklyExpiry,
		models.PolicyMonthlyExpiry,
	}
	out := make([]policyInfo, 0, len(kinds))
	for _, k := range kinds {
		p, err := h.analyze.Policies().Policy(k, "")
		if err != nil {
			return xhttp.AppErrorResponse(c, appError(err))
		}
		out = append(out, policyInfo{Kind: string(k), MinBars: p.MinBars()})
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *WindowsEchoHandler) Backfill(c echo.Context) error {
	start := time.Now()
	endpoint := "backfill"
	defer func() { metrics.WindowsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.BackfillRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.backfill.Backfill(c.Request().Context(), usecase.BackfillParams{
		Symbol:      req.Symbol,
		Days:        req.Days,
		Granularity: domrepo.NormalizeGranularity(req.Granularity),
	})
	if err != nil {
		metrics.WindowsErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("backfill usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *WindowsEchoHandler) Export(c echo.Context) error {
	req := &models.ExportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	err := h.exports.Enqueue(c.Request().Context(), usecase.ExportParams{
		Symbol:      req.Symbol,
		Policy:      req.Policy,
		Days:        req.Days,
		Granularity: req.Granularity,
		MinVol:      req.MinVol,
	})
	if err != nil {
		metrics.WindowsErrors.WithLabelValues("export").Inc()
		h.logger.Error("export enqueue error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "queued"})
}

// appError maps parameter errors to 400s; everything else stays a 500.
func appError(err error) error {
	if errors.Is(err, usecase.ErrInvalidParams) {
		return xhttp.BadRequestErrorf("%v", err)
	}
	return err
}

func (h *WindowsEchoHandler) cached(key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		h.logger.Warn("cache_get_error", xlogger.Error(err))
		return nil, false
	}
	return b, ok
}

func (h *WindowsEchoHandler) store(key string, v interface{}) {
	if h.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := h.cache.SetBytes(key, b, 30*time.Second); err != nil {
		h.logger.Warn("cache_set_error", xlogger.Error(err))
	}
}
