package windows

import (
	"errors"
	"fmt"

	"TrueVol/internal/domain/models"
)

// ErrDegenerateWindow is returned when a window's reference open is zero and
// the percentage metrics are undefined. Upstream data sources guarantee
// positive prices, so hitting this means the input series is corrupt.
var ErrDegenerateWindow = errors.New("windows: reference open is zero")

// Aggregate computes the metric set for one window slice. The slice must be
// non-empty; the caller enforces bar-count thresholds.
//
// The reference open is the close of the first bar in the slice, and the
// direction rule is selected by mode: vol-compare classifies ties as down,
// net-change classifies close == open as down.
func Aggregate(slice models.Series, mode models.DirectionMode) (models.WindowResult, error) {
	if len(slice) == 0 {
		return models.WindowResult{}, fmt.Errorf("windows: aggregate on empty slice")
	}

	open := slice[0].Close
	if open == 0 {
		return models.WindowResult{}, ErrDegenerateWindow
	}
	close := slice[len(slice)-1].Close
	high, low := slice[0].High, slice[0].Low
	for _, b := range slice[1:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}

	upward := (high - open) / open * 100
	downward := (open - low) / open * 100
	trueVol := upward
	if downward > trueVol {
		trueVol = downward
	}

	var dir models.Direction
	switch mode {
	case models.DirectionByNetChange:
		dir = models.DirectionDown
		if close > open {
			dir = models.DirectionUp
		}
	default:
		dir = models.DirectionDown
		if upward > downward {
			dir = models.DirectionUp
		}
	}

	return models.WindowResult{
		Open:              open,
		High:              high,
		Low:               low,
		Close:             close,
		TrueVolatilityPct: trueVol,
		Direction:         dir,
		UpwardVolPct:      upward,
		DownwardVolPct:    downward,
		NetChangePct:      (close - open) / open * 100,
		RangeVolPct:       (high - low) / open * 100,
		RangeAbs:          high - low,
		BarCount:          len(slice),
	}, nil
}
