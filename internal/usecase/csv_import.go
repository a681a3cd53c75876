package usecase

import (
	"context"
	"fmt"

	"TrueVol/internal/domain/repository"
	"TrueVol/internal/service/csvfeed"
	applogger "TrueVol/pkg/logger"
)

// CSVImportUseCase loads a CSV bar export into storage once at startup.
// Daily broker exports carry one bar per trading day, so everything imported
// lands in the daily table.
type CSVImportUseCase struct {
	loader  *csvfeed.Loader
	storage repository.Storage
	metrics repository.Metrics
	log     *applogger.Logger

	path   string
	symbol string
}

// NewCSVImportUseCase creates the import use case for a single configured file.
func NewCSVImportUseCase(storage repository.Storage, metrics repository.Metrics, log *applogger.Logger, path, symbol string) *CSVImportUseCase {
	return &CSVImportUseCase{
		loader:  csvfeed.New(),
		storage: storage,
		metrics: metrics,
		log:     log,
		path:    path,
		symbol:  symbol,
	}
}

// Run imports the configured file. A missing or malformed file is an error;
// an empty file imports zero bars and succeeds.
func (uc *CSVImportUseCase) Run(ctx context.Context) error {
	series, err := uc.loader.LoadFile(uc.path)
	if err != nil {
		uc.metrics.RecordError("csv_import")
		return fmt.Errorf("csv import: %w", err)
	}
	if len(series) == 0 {
		uc.log.Warn("csv import: no bars in file", applogger.String("path", uc.path))
		return nil
	}

	if err := uc.storage.StoreBatch(ctx, uc.symbol, repository.G1d, series); err != nil {
		uc.metrics.RecordError("csv_import")
		return fmt.Errorf("csv import store: %w", err)
	}
	for range series {
		uc.metrics.RecordBarIngested("csv", uc.symbol)
	}

	uc.log.Info("csv import complete",
		applogger.String("path", uc.path),
		applogger.String("symbol", uc.symbol),
		applogger.Int("bars", len(series)))
	return nil
}
