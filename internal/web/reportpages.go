package web

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/flottenwerk/konsole/internal/fleetapi"
	"github.com/flottenwerk/konsole/internal/reports"
)

// utilizationRow is one equipment unit's utilization, ordered numerically
// by id for the report table.
type utilizationRow struct {
	EquipmentID string
	Name        string
	Ratio       float64
}

type utilizationPage struct {
	basePage
	WindowStart string
	WindowEnd   string
	Fleet       float64
	Rows        []utilizationRow
	LoadError   string
}

// handleUtilization renders the fleet utilization report. Without query
// parameters the window defaults to the last 30 days including today.
func (s *Server) handleUtilization(w http.ResponseWriter, r *http.Request) {
	win := reports.DefaultWindow(s.Now())
	start := r.URL.Query().Get("fenster_start")
	end := r.URL.Query().Get("fenster_ende")
	if start == "" {
		start = win.Start.Format(reports.DateLayout)
	}
	if end == "" {
		end = win.End.Format(reports.DateLayout)
	}

	page := utilizationPage{
		basePage:    s.base(w, r, "Auslastung", "utilization"),
		WindowStart: start,
		WindowEnd:   end,
	}

	report, err := s.client.Utilization(r.Context(), start, end)
	if err != nil {
		s.logger.Error("utilization report", "error", err)
		page.LoadError = "Auslastung konnte nicht berechnet werden."
		s.render(w, "utilization.tmpl", page)
		return
	}

	page.Fleet = report.Fleet
	page.Rows = s.utilizationRows(r, report)
	s.render(w, "utilization.tmpl", page)
}

func (s *Server) utilizationRows(r *http.Request, report *fleetapi.Utilization) []utilizationRow {
	rows := make([]utilizationRow, 0, len(report.PerEquipment))
	for id, ratio := range report.PerEquipment {
		row := utilizationRow{EquipmentID: id, Name: "–", Ratio: ratio}
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			if name, err := s.resolver.EquipmentName(r.Context(), n); err == nil {
				row.Name = name
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, aerr := strconv.ParseInt(rows[i].EquipmentID, 10, 64)
		b, berr := strconv.ParseInt(rows[j].EquipmentID, 10, 64)
		if aerr != nil || berr != nil {
			return rows[i].EquipmentID < rows[j].EquipmentID
		}
		return a < b
	})
	return rows
}

// revenueLimits are the selectable scan limits for the revenue report.
var revenueLimits = []int{50, 100, 200, 500}

// revenueRow is one matched rental with its resolved customer name.
type revenueRow struct {
	reports.RevenueRow
	CustomerName string
}

type revenuePage struct {
	basePage
	WindowStart string
	WindowEnd   string
	Status      string
	Limit       int
	Limits      []int
	Computed    bool
	Rows        []revenueRow
	Totals      reports.RevenueTotals
	Scanned     int
	Matched     int
	LoadError   string
}

// handleRevenue renders the revenue report form and, when requested via
// berechnen=1, the aggregation itself. The fan-out over billing summaries
// can be expensive upstream, so it never runs on a bare page load.
func (s *Server) handleRevenue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	win := reports.DefaultWindow(s.Now())

	page := revenuePage{
		basePage:    s.base(w, r, "Einnahmen", "revenue"),
		WindowStart: q.Get("fenster_start"),
		WindowEnd:   q.Get("fenster_ende"),
		Status:      q.Get("status"),
		Limit:       intOr(q.Get("limit"), 100),
		Limits:      revenueLimits,
	}
	if page.WindowStart == "" {
		page.WindowStart = win.Start.Format(reports.DateLayout)
	}
	if page.WindowEnd == "" {
		page.WindowEnd = win.End.Format(reports.DateLayout)
	}
	if page.Status == "" {
		page.Status = string(fleetapi.RentalClosed)
	}

	if q.Get("berechnen") != "1" {
		s.render(w, "revenue.tmpl", page)
		return
	}
	page.Computed = true

	parsedWin, err := reports.ParseWindow(page.WindowStart, page.WindowEnd)
	if err != nil {
		page.LoadError = "Ungültiges Datumsfenster."
		s.render(w, "revenue.tmpl", page)
		return
	}

	// "ALLE" widens the scan to every status; on the wire that is simply
	// an absent filter.
	status := fleetapi.RentalStatus(page.Status)
	if page.Status == "ALLE" {
		status = ""
	}

	report, err := reports.Revenue(r.Context(), s.client, parsedWin, status, page.Limit, s.Now())
	if err != nil {
		s.logger.Error("revenue report", "error", err)
		page.LoadError = "Einnahmen konnten nicht berechnet werden."
		s.render(w, "revenue.tmpl", page)
		return
	}

	page.Totals = report.Totals
	page.Scanned = report.Scanned
	page.Matched = report.Matched
	page.Rows = make([]revenueRow, 0, len(report.Rows))
	for _, row := range report.Rows {
		vr := revenueRow{RevenueRow: row, CustomerName: "–"}
		if name, err := s.resolver.CustomerName(r.Context(), row.CustomerID); err == nil {
			vr.CustomerName = name
		}
		page.Rows = append(page.Rows, vr)
	}

	s.render(w, "revenue.tmpl", page)
}
