package windows

import (
	"fmt"
	"sort"
	"time"

	"TrueVol/internal/domain/models"
)

// Compute partitions the series according to the policy, aggregates every
// window whose slice meets the policy's bar-count threshold, and returns the
// results sorted ascending by window start.
//
// Windows below threshold are skipped silently: sparse data is expected, and
// an empty table is a valid outcome. An empty series yields an empty table.
func Compute(s models.Series, p Policy) (models.ResultTable, error) {
	boundaries := p.Resolve(s)
	table := make(models.ResultTable, 0, len(boundaries))
	for _, b := range boundaries {
		slice := s.Between(b.Start, endOfDayFor(p, b.End))
		if len(slice) < p.MinBars() {
			continue
		}
		r, err := Aggregate(slice, p.DirectionMode())
		if err != nil {
			return nil, fmt.Errorf("window %s: %w", b.Start.Format(time.RFC3339), err)
		}
		identify(&r, p, b, slice)
		table = append(table, r)
	}
	sort.SliceStable(table, func(i, j int) bool {
		return table[i].WindowStart.Before(table[j].WindowStart)
	})
	return table, nil
}

// endOfDayFor widens expiry-window ends to cover the expiry day itself: the
// boundary carries the expiry date at midnight while the day's bars may sit
// at any intraday timestamp.
func endOfDayFor(p Policy, end time.Time) time.Time {
	switch p.Kind() {
	case models.PolicyWeeklyExpiry, models.PolicyMonthlyExpiry:
		return end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	default:
		return end
	}
}

// identify stamps policy-level identity onto a window result.
func identify(r *models.WindowResult, p Policy, b Boundary, slice models.Series) {
	r.Policy = p.Kind()
	r.WindowStart = b.Start
	r.WindowEnd = b.End

	firstDay := models.Midnight(slice[0].Timestamp)
	lastDay := models.Midnight(slice[len(slice)-1].Timestamp)

	switch p.Kind() {
	case models.PolicyDailySession:
		r.Date = models.Midnight(b.Start)
		r.DayOfWeek = r.Date.Weekday().String()
		r.Label = fmt.Sprintf("%s (%s)", r.Date.Format("2006-01-02"), r.DayOfWeek)
	case models.PolicyWeeklyAnchor:
		r.Date = firstDay
		r.Label = fmt.Sprintf("%s to %s", firstDay.Format("2006-01-02"), lastDay.Format("2006-01-02"))
	case models.PolicyWeeklyExpiry:
		r.ExpiryDate = b.Expiry
		r.NextExpiry = b.NextExpiry
		r.Label = fmt.Sprintf("Exp %s | %s to %s",
			b.Expiry.Format("2006-01-02"), b.Start.Format("2006-01-02"), b.End.Format("2006-01-02"))
	case models.PolicyMonthlyExpiry:
		r.ExpiryDate = b.Expiry
		r.NextExpiry = b.NextExpiry
		r.Month = b.Expiry.Format("2006-01")
		r.Label = r.Month
	}
}
