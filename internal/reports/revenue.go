// Package reports holds the console's only client-side computation: the
// date-window overlap filter and the fan-out revenue aggregation over
// per-rental billing summaries. The utilization report needs neither; the
// fleet API computes it whole.
package reports

import (
	"context"
	"sync"
	"time"

	"github.com/flottenwerk/konsole/internal/fleetapi"
)

// DateLayout is the wire format for dates throughout the fleet API.
const DateLayout = "2006-01-02"

// Window is an inclusive date window.
type Window struct {
	Start time.Time
	End   time.Time
}

// DefaultWindow is the preceding 30 days through today: 29 days back so the
// window spans exactly 30 calendar days including now's date.
func DefaultWindow(now time.Time) Window {
	return Window{Start: now.AddDate(0, 0, -29), End: now}
}

// Format renders both bounds in wire format.
func (w Window) Format() (start, end string) {
	return w.Start.Format(DateLayout), w.End.Format(DateLayout)
}

// ParseWindow parses both bounds from wire format.
func ParseWindow(start, end string) (Window, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return Window{}, err
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: s, End: e}, nil
}

// Overlaps reports whether the rental interval [start, end-or-now] touches
// the window, both treated as closed intervals. Open-ended rentals are
// treated as ending now. Unparseable dates never overlap.
func Overlaps(start string, end *string, win Window, now time.Time) bool {
	a1, err := time.Parse(DateLayout, start)
	if err != nil {
		return false
	}
	a2 := now
	if end != nil && *end != "" {
		a2, err = time.Parse(DateLayout, *end)
		if err != nil {
			return false
		}
	}
	return !a1.After(win.End) && !a2.Before(win.Start)
}

// RevenueRow is one rental's billing summary in the aggregate.
type RevenueRow struct {
	RentalID   int64
	CustomerID int64
	fleetapi.BillingSummary
}

// RevenueTotals is the field-wise sum over all surviving rows.
type RevenueTotals struct {
	Rent            float64
	LineItemRevenue float64
	TotalRevenue    float64
	TotalCost       float64
	Margin          float64
}

// RevenueReport is the outcome of one revenue computation. Scanned counts
// the rentals fetched, Matched the ones overlapping the window; rows whose
// summary fetch failed appear in neither Rows nor Totals.
type RevenueReport struct {
	Rows    []RevenueRow
	Totals  RevenueTotals
	Scanned int
	Matched int
}

// Revenue fetches up to maxRentals rentals with the given status (zero value
// means all), keeps those overlapping win, and aggregates their billing
// summaries. The per-rental summary fetches fan out concurrently; any that
// fail are silently dropped, which can under-report against a degraded
// backend — accepted, not compensated for.
func Revenue(ctx context.Context, client *fleetapi.Client, win Window, status fleetapi.RentalStatus, maxRentals int, now time.Time) (*RevenueReport, error) {
	rentals, err := client.ListRentals(ctx, fleetapi.ListRentalsParams{
		Status: status,
		Limit:  maxRentals,
		Offset: 0,
	})
	if err != nil {
		return nil, err
	}

	var matched []fleetapi.Rental
	for _, v := range rentals {
		if Overlaps(v.StartDate, v.EndDate, win, now) {
			matched = append(matched, v)
		}
	}

	results := make([]*RevenueRow, len(matched))
	var wg sync.WaitGroup
	for i, v := range matched {
		wg.Add(1)
		go func(i int, v fleetapi.Rental) {
			defer wg.Done()
			sum, err := client.BillingSummary(ctx, v.ID)
			if err != nil {
				return
			}
			results[i] = &RevenueRow{RentalID: v.ID, CustomerID: v.CustomerID, BillingSummary: *sum}
		}(i, v)
	}
	wg.Wait()

	report := &RevenueReport{Scanned: len(rentals), Matched: len(matched)}
	for _, row := range results {
		if row == nil {
			continue
		}
		report.Rows = append(report.Rows, *row)
		report.Totals.Rent += row.Rent
		report.Totals.LineItemRevenue += row.LineItemRevenue
		report.Totals.TotalRevenue += row.TotalRevenue
		report.Totals.TotalCost += row.TotalCost
		report.Totals.Margin += row.Margin
	}
	return report, nil
}
