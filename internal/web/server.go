// Package web serves the console's HTML boards. Each board owns its filter
// and pagination state through its query string; every mutation redirects
// back into a fresh load, so the fleet API stays the single source of truth.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/flottenwerk/konsole/internal/fleetapi"
	"github.com/flottenwerk/konsole/internal/metrics"
	"github.com/flottenwerk/konsole/internal/resolver"
)

// listLimit bounds the unpaginated helper loads (customer and site
// selectors, detail sub-resources), mirroring the fleet API's maximum.
const listLimit = 500

// pageSizes are the selectable board page sizes.
var pageSizes = []int{10, 25, 50, 100}

//go:embed templates/*.tmpl
var templateFS embed.FS

// Server holds shared dependencies for all board handlers.
type Server struct {
	client   *fleetapi.Client
	resolver *resolver.Resolver
	logger   *slog.Logger
	pageSize int
	version  string

	// Now is the clock used for date defaults; overridable in tests.
	Now func() time.Time

	templates map[string]*template.Template
}

// New creates a Server. pageSize is the default board page size.
func New(client *fleetapi.Client, res *resolver.Resolver, logger *slog.Logger, pageSize int, version string) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Server{
		client:    client,
		resolver:  res,
		logger:    logger,
		pageSize:  pageSize,
		version:   version,
		Now:       time.Now,
		templates: templates,
	}, nil
}

var templateFuncs = template.FuncMap{
	"eur": func(v float64) string {
		return fmt.Sprintf("%.2f €", v)
	},
	"eurp": func(v *float64) string {
		if v == nil {
			return "–"
		}
		return fmt.Sprintf("%.2f €", *v)
	},
	"pct": func(v float64) string {
		return fmt.Sprintf("%.1f %%", v*100)
	},
	"orDash": func(v *string) string {
		if v == nil || *v == "" {
			return "–"
		}
		return *v
	},
	"num": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
	"nump": func(v *float64) string {
		if v == nil {
			return "–"
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	},
}

func parseTemplates() (map[string]*template.Template, error) {
	pages := []string{
		"equipment.tmpl",
		"start_rental.tmpl",
		"rentals.tmpl",
		"rental_detail.tmpl",
		"utilization.tmpl",
		"revenue.tmpl",
		"masterdata.tmpl",
	}
	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New("layout.tmpl").Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.tmpl", "templates/"+page)
		if err != nil {
			return nil, err
		}
		out[page] = t
	}
	return out, nil
}

// Routes builds the console's mux. Every page route is wrapped with the
// metrics middleware under its pattern so path labels stay bounded.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		route := pattern
		if i := strings.IndexByte(pattern, ' '); i >= 0 {
			route = pattern[i+1:]
		}
		mux.Handle(pattern, metrics.Middleware(route, h))
	}

	handle("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/equipment", http.StatusFound)
	})
	handle("GET /equipment", s.handleEquipmentBoard)
	handle("GET /equipment/{id}/start", s.handleStartRentalForm)
	handle("POST /equipment/{id}/start", s.handleStartRentalSubmit)
	handle("GET /rentals", s.handleRentalBoard)
	handle("GET /rentals/{id}", s.handleRentalDetail)
	handle("POST /rentals/{id}/start", s.handleRentalStart)
	handle("POST /rentals/{id}/close", s.handleRentalClose)
	handle("POST /rentals/{id}/items", s.handleAddLineItem)
	handle("POST /rentals/{id}/invoices", s.handleAddInvoice)
	handle("GET /reports/utilization", s.handleUtilization)
	handle("GET /reports/revenue", s.handleRevenue)
	handle("GET /masterdata", s.handleMasterData)
	handle("POST /masterdata/equipment", s.handleCreateEquipment)
	handle("POST /masterdata/customers", s.handleCreateCustomer)
	handle("POST /masterdata/sites", s.handleCreateSite)
	handle("GET /search/invoice", s.handleInvoiceSearch)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

// basePage carries what the layout needs on every page.
type basePage struct {
	Title  string
	Active string
	Flash  string
}

func (s *Server) base(w http.ResponseWriter, r *http.Request, title, active string) basePage {
	return basePage{Title: title, Active: active, Flash: s.popFlash(w, r)}
}

// render executes the named page into a buffer first so a template error
// never produces a half-written response.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	t, ok := s.templates[name]
	if !ok {
		s.logger.Error("unknown template", "template", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		s.logger.Error("render template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w) //nolint:errcheck
}

const flashCookie = "konsole_flash"

// setFlash queues a one-shot notification for the next rendered page.
func (s *Server) setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	})
}

// popFlash reads and clears the pending notification, if any.
func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}

// listQuery is a board's filter and pagination state, parsed from its query
// string. Filter forms never carry an offset field, so submitting one lands
// back on offset 0 — the pagination-reset rule falls out of the parsing.
type listQuery struct {
	Status   string
	Location string
	Limit    int
	Offset   int
}

func (s *Server) parseListQuery(r *http.Request) listQuery {
	q := r.URL.Query()
	lq := listQuery{
		Status:   q.Get("status"),
		Location: q.Get("standort"),
		Limit:    s.pageSize,
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 && n <= listLimit {
		lq.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		lq.Offset = n
	}
	return lq
}

// PrevOffset is the previous page's offset, clamped at 0.
func (q listQuery) PrevOffset() int {
	if o := q.Offset - q.Limit; o > 0 {
		return o
	}
	return 0
}

// NextOffset is the next page's offset.
func (q listQuery) NextOffset() int {
	return q.Offset + q.Limit
}

// PageSizes lists the selectable page sizes for the toolbar.
func (q listQuery) PageSizes() []int { return pageSizes }

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func (s *Server) today() string {
	return s.Now().Format("2006-01-02")
}

// optString trims v and returns nil for an empty result, so optional form
// fields are omitted from request payloads rather than sent empty.
func optString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// optFloat parses v into a float pointer; blank or unparseable input is nil.
func optFloat(v string) *float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

// floatOr parses v, falling back to def for blank or unparseable input.
func floatOr(v string, def float64) float64 {
	if f := optFloat(v); f != nil {
		return *f
	}
	return def
}

// intOr parses v, falling back to def for blank or unparseable input.
func intOr(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// handleHealth reports console health including upstream reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.client.Health(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}
