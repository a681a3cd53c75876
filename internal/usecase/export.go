package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"TrueVol/internal/domain/models"
	domrepo "TrueVol/internal/domain/repository"
	"TrueVol/pkg/logger"
	"TrueVol/pkg/queue"
)

// csvHeader is the fixed column order of every export.
var csvHeader = []string{
	"policy", "label", "window_start", "window_end",
	"open", "high", "low", "close",
	"true_volatility_pct", "direction", "upward_vol_pct", "downward_vol_pct",
	"net_change_pct", "range_vol_pct", "range_abs", "bar_count",
}

// WriteCSV renders a result table in table order with a fixed header.
func WriteCSV(w io.Writer, table models.ResultTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range table {
		row := []string{
			string(r.Policy),
			r.Label,
			r.WindowStart.UTC().Format(time.RFC3339),
			r.WindowEnd.UTC().Format(time.RFC3339),
			formatFloat(r.Open),
			formatFloat(r.High),
			formatFloat(r.Low),
			formatFloat(r.Close),
			formatFloat(r.TrueVolatilityPct),
			string(r.Direction),
			formatFloat(r.UpwardVolPct),
			formatFloat(r.DownwardVolPct),
			formatFloat(r.NetChangePct),
			formatFloat(r.RangeVolPct),
			formatFloat(r.RangeAbs),
			strconv.Itoa(r.BarCount),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", r.Label, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ExportParams describes one export request. It doubles as the queue job
// payload for asynchronous exports.
type ExportParams struct {
	Symbol      string  `json:"symbol"`
	Policy      string  `json:"policy"`
	Days        int     `json:"days"`
	Granularity string  `json:"granularity"`
	MinVol      float64 `json:"min_vol"`
}

// ExportUseCase renders window tables to CSV, either inline or through the
// job queue into the export directory.
type ExportUseCase struct {
	analyze *AnalyzeUseCase
	queue   queue.QueueService
	dir     string
	log     *logger.Logger
}

func NewExportUseCase(analyze *AnalyzeUseCase, q queue.QueueService, dir string, log *logger.Logger) *ExportUseCase {
	return &ExportUseCase{analyze: analyze, queue: q, dir: dir, log: log}
}

// Render computes the table and streams it as CSV.
func (uc *ExportUseCase) Render(ctx context.Context, w io.Writer, p ExportParams) error {
	res, err := uc.analyze.Analyze(ctx, AnalyzeParams{
		Symbol:      p.Symbol,
		Policy:      models.PolicyKind(p.Policy),
		Days:        p.Days,
		Granularity: domrepo.NormalizeGranularity(p.Granularity),
		MinVol:      p.MinVol,
	})
	if err != nil {
		return err
	}
	return WriteCSV(w, res.Windows)
}

// Enqueue schedules an asynchronous export through the job queue.
func (uc *ExportUseCase) Enqueue(ctx context.Context, p ExportParams) error {
	if uc.queue == nil {
		return fmt.Errorf("export queue not configured")
	}
	return uc.queue.PublishMessage(ctx, ExportJobType, p)
}

// RenderToFile computes the table and writes it under the export directory.
func (uc *ExportUseCase) RenderToFile(ctx context.Context, p ExportParams) (string, error) {
	if err := os.MkdirAll(uc.dir, 0o755); err != nil {
		return "", fmt.Errorf("export dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s_%s.csv", p.Symbol, p.Policy, time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(uc.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export: %w", err)
	}
	defer f.Close()

	if err := uc.Render(ctx, f, p); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// ExportJobType identifies export messages in the queue.
const ExportJobType = "export_windows"

// ExportJob consumes queued export requests and writes CSV files.
type ExportJob struct {
	exports *ExportUseCase
	log     *logger.Logger
}

func NewExportJob(exports *ExportUseCase, log *logger.Logger) *ExportJob {
	return &ExportJob{exports: exports, log: log}
}

func (j *ExportJob) Name() string { return "export-windows" }
func (j *ExportJob) Type() string { return ExportJobType }

func (j *ExportJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ExportParams](payload)
	if err != nil {
		return fmt.Errorf("export payload: %w", err)
	}
	path, err := j.exports.RenderToFile(ctx, *p)
	if err != nil {
		j.log.Error("export failed",
			logger.String("symbol", p.Symbol),
			logger.String("policy", p.Policy),
			logger.Error(err))
		return err
	}
	j.log.Info("export written",
		logger.String("symbol", p.Symbol),
		logger.String("policy", p.Policy),
		logger.String("path", path))
	return nil
}

var _ queue.Job = (*ExportJob)(nil)
