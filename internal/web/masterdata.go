package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/flottenwerk/konsole/internal/fleetapi"
)

// masterDataPage backs the three creation forms. The form values are kept
// as url.Values so a rejected submission re-renders with the entered data
// ({{.EquipmentForm.Get "name"}} in the template).
type masterDataPage struct {
	basePage
	Customers []fleetapi.Customer

	EquipmentForm  url.Values
	EquipmentError string
	CustomerForm   url.Values
	CustomerError  string
	SiteForm       url.Values
	SiteError      string
}

func (s *Server) masterDataPage(w http.ResponseWriter, r *http.Request) masterDataPage {
	page := masterDataPage{
		basePage:      s.base(w, r, "Stammdaten", "masterdata"),
		EquipmentForm: url.Values{},
		CustomerForm:  url.Values{},
		SiteForm:      url.Values{},
	}
	customers, err := s.client.ListCustomers(r.Context(), listLimit)
	if err != nil {
		s.logger.Warn("list customers for site form", "error", err)
	}
	page.Customers = customers
	return page
}

// handleMasterData renders the creation forms for equipment, customers, and
// sites.
func (s *Server) handleMasterData(w http.ResponseWriter, r *http.Request) {
	s.render(w, "masterdata.tmpl", s.masterDataPage(w, r))
}

// handleCreateEquipment registers a new piece of equipment. Name and
// category are required; counter, hours-per-day, and purchase price fall
// back to the fleet API's defaults when blank.
func (s *Server) handleCreateEquipment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	rerender := func(msg string) {
		page := s.masterDataPage(w, r)
		page.EquipmentForm = r.PostForm
		page.EquipmentError = msg
		s.render(w, "masterdata.tmpl", page)
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	category := strings.TrimSpace(r.PostFormValue("kategorie"))
	if name == "" || category == "" {
		rerender("Name und Kategorie sind erforderlich.")
		return
	}

	req := fleetapi.CreateEquipmentRequest{
		Name:          name,
		Category:      category,
		Model:         optString(r.PostFormValue("modell")),
		Serial:        optString(r.PostFormValue("seriennummer")),
		HourCounter:   floatOr(r.PostFormValue("stundenzaehler"), 0),
		HoursPerDay:   intOr(r.PostFormValue("stunden_pro_tag"), 8),
		PurchaseDate:  optString(r.PostFormValue("kauf_datum")),
		PurchasePrice: floatOr(r.PostFormValue("anschaffungspreis"), 0),
	}

	created, err := s.client.CreateEquipment(r.Context(), req)
	if err != nil {
		s.logger.Error("create equipment", "error", err)
		rerender(upstreamMessage("Gerät konnte nicht angelegt werden", err))
		return
	}

	s.setFlash(w, fmt.Sprintf("Gerät #%d angelegt.", created.ID))
	http.Redirect(w, r, "/masterdata", http.StatusSeeOther)
}

// handleCreateCustomer registers a new customer. Only the name is required.
func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	rerender := func(msg string) {
		page := s.masterDataPage(w, r)
		page.CustomerForm = r.PostForm
		page.CustomerError = msg
		s.render(w, "masterdata.tmpl", page)
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		rerender("Name ist erforderlich.")
		return
	}

	req := fleetapi.CreateCustomerRequest{
		Name:           name,
		Email:          optString(r.PostFormValue("email")),
		Phone:          optString(r.PostFormValue("telefon")),
		BillingAddress: optString(r.PostFormValue("rechnungsadresse")),
		TaxID:          optString(r.PostFormValue("ust_id")),
	}

	created, err := s.client.CreateCustomer(r.Context(), req)
	if err != nil {
		s.logger.Error("create customer", "error", err)
		rerender(upstreamMessage("Kunde konnte nicht angelegt werden", err))
		return
	}

	s.setFlash(w, fmt.Sprintf("Kunde #%d angelegt.", created.ID))
	http.Redirect(w, r, "/masterdata", http.StatusSeeOther)
}

// handleCreateSite registers a new construction site for a customer.
func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	rerender := func(msg string) {
		page := s.masterDataPage(w, r)
		page.SiteForm = r.PostForm
		page.SiteError = msg
		s.render(w, "masterdata.tmpl", page)
	}

	customerID, err := strconv.ParseInt(strings.TrimSpace(r.PostFormValue("kunde_id")), 10, 64)
	if err != nil || customerID <= 0 {
		rerender("Bitte einen Kunden auswählen.")
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		rerender("Name ist erforderlich.")
		return
	}

	req := fleetapi.CreateSiteRequest{
		CustomerID: customerID,
		Name:       name,
		Address:    optString(r.PostFormValue("adresse")),
		City:       optString(r.PostFormValue("stadt")),
		Country:    optString(r.PostFormValue("land")),
	}

	created, err := s.client.CreateSite(r.Context(), req)
	if err != nil {
		s.logger.Error("create site", "error", err)
		rerender(upstreamMessage("Baustelle konnte nicht angelegt werden", err))
		return
	}

	s.setFlash(w, fmt.Sprintf("Baustelle #%d angelegt.", created.ID))
	http.Redirect(w, r, "/masterdata", http.StatusSeeOther)
}

// handleInvoiceSearch resolves an invoice number to its rental and jumps to
// the rentals board anchored on it. A miss flashes a notice and returns to
// the page the search was issued from.
func (s *Server) handleInvoiceSearch(w http.ResponseWriter, r *http.Request) {
	back := r.Referer()
	if back == "" {
		back = "/equipment"
	}

	number := strings.TrimSpace(r.URL.Query().Get("nummer"))
	if number == "" {
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	result, err := s.client.SearchInvoice(r.Context(), number)
	if err != nil {
		if apiErr, ok := err.(fleetapi.APIError); !ok || apiErr.StatusCode != http.StatusNotFound {
			s.logger.Error("invoice search", "error", err)
		}
		s.setFlash(w, fmt.Sprintf("Keine Rechnung mit Nummer %q gefunden.", number))
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	s.setFlash(w, fmt.Sprintf("Rechnung %s gehört zu Vermietung #%d.", number, result.RentalID))
	http.Redirect(w, r, fmt.Sprintf("/rentals?anchor=%d", result.RentalID), http.StatusSeeOther)
}
