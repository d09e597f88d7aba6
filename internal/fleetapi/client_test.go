package fleetapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flottenwerk/konsole/internal/fleetapi"
)

// newTestServer starts an httptest.Server standing in for the fleet API.
// handler writes the desired response; the returned client targets it.
func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *fleetapi.Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := fleetapi.NewClient(srv.URL, 0, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return srv, client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestNewClient_EmptyBaseURL(t *testing.T) {
	if _, err := fleetapi.NewClient("   ", 0, nil); err == nil {
		t.Fatal("expected error for empty base URL, got nil")
	}
}

// --- query-string construction ---

func TestListEquipment_DropsEmptyFilters(t *testing.T) {
	var gotQuery string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, []fleetapi.Equipment{})
	})

	_, err := client.ListEquipment(context.Background(), fleetapi.ListEquipmentParams{
		Limit:  25,
		Offset: 0,
	})
	if err != nil {
		t.Fatalf("ListEquipment: %v", err)
	}
	// status and standort_typ are unset and must be omitted; limit and
	// offset are always sent, including offset=0.
	if gotQuery != "limit=25&offset=0" {
		t.Errorf("query: got %q, want %q", gotQuery, "limit=25&offset=0")
	}
}

func TestListEquipment_SendsFilters(t *testing.T) {
	var gotQuery string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, []fleetapi.Equipment{})
	})

	_, err := client.ListEquipment(context.Background(), fleetapi.ListEquipmentParams{
		Status:   fleetapi.EquipmentAvailable,
		Location: fleetapi.LocationDepot,
		Limit:    10,
		Offset:   20,
	})
	if err != nil {
		t.Fatalf("ListEquipment: %v", err)
	}
	want := "limit=10&offset=20&standort_typ=MIETPARK&status=VERFUEGBAR"
	if gotQuery != want {
		t.Errorf("query: got %q, want %q", gotQuery, want)
	}
}

func TestParams_AllEmptyYieldsNoQuestionMark(t *testing.T) {
	var gotURI string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.URL.RequestURI()
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if gotURI != "/health" {
		t.Errorf("request URI: got %q, want %q", gotURI, "/health")
	}
}

// --- error contract ---

func TestGetEquipment_NonSuccessCarriesStatusAndBody(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail":"Geraet nicht gefunden"}`)
	})

	_, err := client.GetEquipment(context.Background(), 99)
	if err == nil {
		t.Fatal("expected error on 404, got nil")
	}
	var apiErr fleetapi.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode: got %d, want 404", apiErr.StatusCode)
	}
	if apiErr.Body != `{"detail":"Geraet nicht gefunden"}` {
		t.Errorf("Body: got %q", apiErr.Body)
	}
}

func TestCreateRental_ValidationErrorSurfacesBody(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, "Geraet ist nicht verfuegbar")
	})

	_, err := client.CreateRental(context.Background(), fleetapi.CreateRentalRequest{})
	var apiErr fleetapi.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Body != "Geraet ist nicht verfuegbar" {
		t.Errorf("Body: got %q", apiErr.Body)
	}
}

// --- CreateRental payload ---

func TestCreateRental_ReservationOmitsCounterStart(t *testing.T) {
	var gotBody map[string]any
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %q, want POST", r.Method)
		}
		if r.URL.Path != "/vermietungen" {
			t.Errorf("path: got %q, want /vermietungen", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		writeJSON(w, http.StatusOK, fleetapi.IDResponse{ID: 7})
	})

	res, err := client.CreateRental(context.Background(), fleetapi.CreateRentalRequest{
		EquipmentID: 3,
		CustomerID:  1,
		StartDate:   "2024-06-01",
		RateValue:   120,
		RateUnit:    fleetapi.RateDaily,
		Status:      fleetapi.RentalReserved,
	})
	if err != nil {
		t.Fatalf("CreateRental: %v", err)
	}
	if res.ID != 7 {
		t.Errorf("ID: got %d, want 7", res.ID)
	}
	if _, present := gotBody["zaehler_start"]; present {
		t.Error("zaehler_start must be omitted for reservations")
	}
	if gotBody["status"] != "RESERVIERT" {
		t.Errorf("status: got %v, want RESERVIERT", gotBody["status"])
	}
}

// --- CloseRental payload ---

func TestCloseRental_OmitsActualHoursWhenNil(t *testing.T) {
	var gotBody map[string]any
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vermietungen/5/schliessen" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusOK, fleetapi.Rental{ID: 5, Status: fleetapi.RentalClosed})
	})

	got, err := client.CloseRental(context.Background(), 5, fleetapi.CloseRentalRequest{
		EndDate: "2024-06-30",
	})
	if err != nil {
		t.Fatalf("CloseRental: %v", err)
	}
	if got.Status != fleetapi.RentalClosed {
		t.Errorf("Status: got %q, want GESCHLOSSEN", got.Status)
	}
	if _, present := gotBody["stunden_ist"]; present {
		t.Error("stunden_ist must be omitted when not entered")
	}
	if gotBody["end_datum"] != "2024-06-30" {
		t.Errorf("end_datum: got %v", gotBody["end_datum"])
	}
}

// --- sub-resource paths ---

func TestListLineItems_PathAndLimit(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vermietungen/12/positionen" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "500" {
			t.Errorf("limit: got %q, want 500", r.URL.Query().Get("limit"))
		}
		writeJSON(w, http.StatusOK, []fleetapi.LineItem{
			{ID: 1, RentalID: 12, Type: fleetapi.ItemAssembly, Quantity: 2, Unit: "STK", UnitPrice: 80},
		})
	})

	items, err := client.ListLineItems(context.Background(), 12, 500)
	if err != nil {
		t.Fatalf("ListLineItems: %v", err)
	}
	if len(items) != 1 || items[0].Type != fleetapi.ItemAssembly {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestSearchInvoice_Found(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rechnungen/suche" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if r.URL.Query().Get("nummer") != "RE-2024-001" {
			t.Errorf("nummer: got %q", r.URL.Query().Get("nummer"))
		}
		writeJSON(w, http.StatusOK, fleetapi.InvoiceSearchResult{InvoiceID: 4, RentalID: 9})
	})

	got, err := client.SearchInvoice(context.Background(), "RE-2024-001")
	if err != nil {
		t.Fatalf("SearchInvoice: %v", err)
	}
	if got.RentalID != 9 {
		t.Errorf("RentalID: got %d, want 9", got.RentalID)
	}
}

func TestSearchInvoice_NotFound(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, "Rechnungsnummer nicht gefunden")
	})

	_, err := client.SearchInvoice(context.Background(), "missing")
	var apiErr fleetapi.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 APIError, got %v", err)
	}
}

func TestUtilization_WindowParams(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("fenster_start") != "2024-01-01" || q.Get("fenster_ende") != "2024-01-31" {
			t.Errorf("window params: got %q", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, fleetapi.Utilization{
			WindowStart:  "2024-01-01",
			WindowEnd:    "2024-01-31",
			Fleet:        0.42,
			PerEquipment: map[string]float64{"1": 0.8, "2": 0.04},
		})
	})

	got, err := client.Utilization(context.Background(), "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("Utilization: %v", err)
	}
	if got.Fleet != 0.42 {
		t.Errorf("Fleet: got %v, want 0.42", got.Fleet)
	}
	if got.PerEquipment["1"] != 0.8 {
		t.Errorf("PerEquipment[1]: got %v, want 0.8", got.PerEquipment["1"])
	}
}

// --- POST body defaulting ---

func TestAddInvoice_OmitsBlankDate(t *testing.T) {
	var raw map[string]any
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		writeJSON(w, http.StatusOK, fleetapi.IDResponse{ID: 1})
	})

	_, err := client.AddInvoice(context.Background(), 3, fleetapi.AddInvoiceRequest{Number: "RE-7"})
	if err != nil {
		t.Fatalf("AddInvoice: %v", err)
	}
	if raw["nummer"] != "RE-7" {
		t.Errorf("nummer: got %v", raw["nummer"])
	}
	if _, present := raw["datum"]; present {
		t.Error("datum must be omitted so the fleet API defaults it")
	}
}

// --- Observer ---

func TestObserver_SeesRoutePatternAndStatus(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, fleetapi.Equipment{ID: 2, Name: "Bagger"})
	})

	var gotMethod, gotRoute string
	var gotStatus int
	client.Observer = func(method, route string, status int) {
		gotMethod, gotRoute, gotStatus = method, route, status
	}

	if _, err := client.GetEquipment(context.Background(), 2); err != nil {
		t.Fatalf("GetEquipment: %v", err)
	}
	if gotMethod != http.MethodGet || gotRoute != "/geraete/{id}" || gotStatus != http.StatusOK {
		t.Errorf("observer: got (%q, %q, %d)", gotMethod, gotRoute, gotStatus)
	}
}
