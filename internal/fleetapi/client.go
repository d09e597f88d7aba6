package fleetapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds every upstream request when the caller does not
// configure one.
const DefaultTimeout = 15 * time.Second

// Client is an HTTP client for the fleet management REST API. All state it
// returns is remote and non-authoritative; the console re-fetches rather
// than caches.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	// Observer, when set, is invoked after every upstream request with the
	// route pattern (not the concrete path, to keep label cardinality
	// bounded) and the response status. 0 means the request never got a
	// response.
	Observer func(method, route string, status int)
}

// APIError is a non-2xx response from the fleet API. The body text is
// carried verbatim so upstream validation messages reach the user.
type APIError struct {
	StatusCode int
	Body       string
}

func (e APIError) Error() string {
	return fmt.Sprintf("fleet API returned status %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a Client for the fleet API at baseURL. A zero timeout
// falls back to DefaultTimeout; a nil logger disables request diagnostics.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Params holds query parameters for a list request. Entries with an empty
// value are dropped entirely, so optional filters can always be passed and
// "all" simply means "".
type Params map[string]string

// encode renders p as a query string including the leading "?", or "" when
// no parameter survives.
func (p Params) encode() string {
	vals := url.Values{}
	for k, v := range p {
		if v == "" {
			continue
		}
		vals.Set(k, v)
	}
	s := vals.Encode()
	if s == "" {
		return ""
	}
	return "?" + s
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

// do issues one request and decodes a 2xx JSON response into out. route is
// the path pattern reported to the Observer. Any non-2xx status becomes an
// APIError carrying the body text.
func (c *Client) do(ctx context.Context, method, path, route string, body, out any) error {
	var reqBody io.Reader
	if method == http.MethodPost {
		if body == nil {
			body = struct{}{}
		}
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.Observer != nil {
			c.Observer(method, route, 0)
		}
		return err
	}
	defer resp.Body.Close()

	if c.Observer != nil {
		c.Observer(method, route, resp.StatusCode)
	}
	c.logger.Debug("fleet api request",
		"method", method, "url", fullURL, "status", resp.StatusCode)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return APIError{StatusCode: resp.StatusCode, Body: string(payload)}
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, out)
}

func (c *Client) get(ctx context.Context, path, route string, params Params, out any) error {
	return c.do(ctx, http.MethodGet, path+params.encode(), route, nil, out)
}

func (c *Client) post(ctx context.Context, path, route string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, route, body, out)
}

// ListEquipmentParams filters GET /geraete. Zero-valued Status and Location
// mean "all".
type ListEquipmentParams struct {
	Status   EquipmentStatus
	Location LocationType
	Limit    int
	Offset   int
}

// ListEquipment fetches one page of equipment.
func (c *Client) ListEquipment(ctx context.Context, p ListEquipmentParams) ([]Equipment, error) {
	var out []Equipment
	err := c.get(ctx, "/geraete", "/geraete", Params{
		"status":       string(p.Status),
		"standort_typ": string(p.Location),
		"limit":        strconv.Itoa(p.Limit),
		"offset":       strconv.Itoa(p.Offset),
	}, &out)
	return out, err
}

// GetEquipment fetches a single equipment record by id.
func (c *Client) GetEquipment(ctx context.Context, id int64) (*Equipment, error) {
	var out Equipment
	if err := c.get(ctx, "/geraete/"+itoa(id), "/geraete/{id}", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateEquipment registers a new piece of equipment.
func (c *Client) CreateEquipment(ctx context.Context, req CreateEquipmentRequest) (*IDResponse, error) {
	var out IDResponse
	if err := c.post(ctx, "/geraete", "/geraete", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCustomers fetches up to limit customers.
func (c *Client) ListCustomers(ctx context.Context, limit int) ([]Customer, error) {
	var out []Customer
	err := c.get(ctx, "/kunden", "/kunden", Params{"limit": strconv.Itoa(limit)}, &out)
	return out, err
}

// CreateCustomer registers a new customer.
func (c *Client) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*IDResponse, error) {
	var out IDResponse
	if err := c.post(ctx, "/kunden", "/kunden", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSites fetches up to limit sites, optionally restricted to one
// customer (customerID 0 means all).
func (c *Client) ListSites(ctx context.Context, customerID int64, limit int) ([]Site, error) {
	p := Params{"limit": strconv.Itoa(limit)}
	if customerID > 0 {
		p["kunde_id"] = itoa(customerID)
	}
	var out []Site
	err := c.get(ctx, "/baustellen", "/baustellen", p, &out)
	return out, err
}

// CreateSite registers a new construction site.
func (c *Client) CreateSite(ctx context.Context, req CreateSiteRequest) (*IDResponse, error) {
	var out IDResponse
	if err := c.post(ctx, "/baustellen", "/baustellen", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRentalsParams filters GET /vermietungen. Zero values mean "all".
type ListRentalsParams struct {
	Status      RentalStatus
	EquipmentID int64
	CustomerID  int64
	Limit       int
	Offset      int
}

// ListRentals fetches one page of rental agreements.
func (c *Client) ListRentals(ctx context.Context, p ListRentalsParams) ([]Rental, error) {
	params := Params{
		"status": string(p.Status),
		"limit":  strconv.Itoa(p.Limit),
		"offset": strconv.Itoa(p.Offset),
	}
	if p.EquipmentID > 0 {
		params["geraet_id"] = itoa(p.EquipmentID)
	}
	if p.CustomerID > 0 {
		params["kunde_id"] = itoa(p.CustomerID)
	}
	var out []Rental
	err := c.get(ctx, "/vermietungen", "/vermietungen", params, &out)
	return out, err
}

// GetRental fetches a single rental agreement by id.
func (c *Client) GetRental(ctx context.Context, id int64) (*Rental, error) {
	var out Rental
	if err := c.get(ctx, "/vermietungen/"+itoa(id), "/vermietungen/{id}", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRental opens a rental or books a reservation.
func (c *Client) CreateRental(ctx context.Context, req CreateRentalRequest) (*IDResponse, error) {
	var out IDResponse
	if err := c.post(ctx, "/vermietungen", "/vermietungen", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartRental starts a reserved rental and returns the updated record.
func (c *Client) StartRental(ctx context.Context, id int64, req StartRentalRequest) (*Rental, error) {
	var out Rental
	err := c.post(ctx, "/vermietungen/"+itoa(id)+"/starten", "/vermietungen/{id}/starten", req, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CloseRental closes an open rental and returns the updated record.
func (c *Client) CloseRental(ctx context.Context, id int64, req CloseRentalRequest) (*Rental, error) {
	var out Rental
	err := c.post(ctx, "/vermietungen/"+itoa(id)+"/schliessen", "/vermietungen/{id}/schliessen", req, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListLineItems fetches up to limit line items of a rental.
func (c *Client) ListLineItems(ctx context.Context, rentalID int64, limit int) ([]LineItem, error) {
	var out []LineItem
	err := c.get(ctx, "/vermietungen/"+itoa(rentalID)+"/positionen", "/vermietungen/{id}/positionen",
		Params{"limit": strconv.Itoa(limit)}, &out)
	return out, err
}

// AddLineItem records a line item on a rental.
func (c *Client) AddLineItem(ctx context.Context, rentalID int64, req AddLineItemRequest) (*IDResponse, error) {
	var out IDResponse
	err := c.post(ctx, "/vermietungen/"+itoa(rentalID)+"/positionen", "/vermietungen/{id}/positionen", req, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListInvoices fetches up to limit invoices of a rental.
func (c *Client) ListInvoices(ctx context.Context, rentalID int64, limit int) ([]Invoice, error) {
	var out []Invoice
	err := c.get(ctx, "/vermietungen/"+itoa(rentalID)+"/rechnungen", "/vermietungen/{id}/rechnungen",
		Params{"limit": strconv.Itoa(limit)}, &out)
	return out, err
}

// AddInvoice records an invoice on a rental. The fleet API rejects duplicate
// invoice numbers; the APIError body carries its message.
func (c *Client) AddInvoice(ctx context.Context, rentalID int64, req AddInvoiceRequest) (*IDResponse, error) {
	var out IDResponse
	err := c.post(ctx, "/vermietungen/"+itoa(rentalID)+"/rechnungen", "/vermietungen/{id}/rechnungen", req, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchInvoice resolves an invoice number to its invoice and rental ids.
// A miss is an APIError with status 404.
func (c *Client) SearchInvoice(ctx context.Context, number string) (*InvoiceSearchResult, error) {
	var out InvoiceSearchResult
	err := c.get(ctx, "/rechnungen/suche", "/rechnungen/suche", Params{"nummer": number}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BillingSummary fetches the derived billing projection for a rental. Open
// rentals may not have one yet; that surfaces as an APIError the caller is
// expected to tolerate.
func (c *Client) BillingSummary(ctx context.Context, rentalID int64) (*BillingSummary, error) {
	var out BillingSummary
	err := c.get(ctx, "/berichte/vermietungen/"+itoa(rentalID)+"/abrechnung",
		"/berichte/vermietungen/{id}/abrechnung", nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Utilization fetches the fleet utilization report for a date window
// (inclusive, "YYYY-MM-DD").
func (c *Client) Utilization(ctx context.Context, windowStart, windowEnd string) (*Utilization, error) {
	var out Utilization
	err := c.get(ctx, "/berichte/auslastung", "/berichte/auslastung", Params{
		"fenster_start": windowStart,
		"fenster_ende":  windowEnd,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Health probes the fleet API's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", "/health", nil, nil)
}
