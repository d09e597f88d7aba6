package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/flottenwerk/konsole/internal/fleetapi"
)

type equipmentPage struct {
	basePage
	Query     listQuery
	Items     []fleetapi.Equipment
	LoadError string
	Statuses  []fleetapi.EquipmentStatus
	Locations []fleetapi.LocationType
}

// handleEquipmentBoard renders the fleet list with its status and location
// filters. A failed upstream load renders the board with an error notice
// instead of replacing the page, so the filters stay usable.
func (s *Server) handleEquipmentBoard(w http.ResponseWriter, r *http.Request) {
	lq := s.parseListQuery(r)

	page := equipmentPage{
		basePage:  s.base(w, r, "Geräte", "equipment"),
		Query:     lq,
		Statuses:  fleetapi.EquipmentStatuses,
		Locations: fleetapi.LocationTypes,
	}

	items, err := s.client.ListEquipment(r.Context(), fleetapi.ListEquipmentParams{
		Status:   fleetapi.EquipmentStatus(lq.Status),
		Location: fleetapi.LocationType(lq.Location),
		Limit:    lq.Limit,
		Offset:   lq.Offset,
	})
	if err != nil {
		s.logger.Error("list equipment", "error", err)
		page.LoadError = "Geräte konnten nicht geladen werden."
	}
	page.Items = items

	s.render(w, "equipment.tmpl", page)
}

// startRentalForm mirrors the form inputs verbatim so a rejected submission
// can re-render with everything the user typed.
type startRentalForm struct {
	Status       string
	CustomerID   string
	SiteID       string
	StartDate    string
	EndDate      string
	RateValue    string
	RateUnit     string
	CounterStart string
	Notes        string
}

type startRentalPage struct {
	basePage
	Equipment fleetapi.Equipment
	Customers []fleetapi.Customer
	Sites     []fleetapi.Site
	Form      startRentalForm
	Error     string
	RateUnits []fleetapi.RateUnit
}

// handleStartRentalForm shows the create-rental form for one piece of
// equipment. Customer and site selector loads are tolerated: a failure
// leaves the selector empty rather than blocking the form.
func (s *Server) handleStartRentalForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	equipment, err := s.client.GetEquipment(r.Context(), id)
	if err != nil {
		s.logger.Error("get equipment", "id", id, "error", err)
		s.setFlash(w, fmt.Sprintf("Gerät %d konnte nicht geladen werden.", id))
		http.Redirect(w, r, "/equipment", http.StatusSeeOther)
		return
	}

	page := startRentalPage{
		basePage:  s.base(w, r, "Vermietung anlegen", "equipment"),
		Equipment: *equipment,
		RateUnits: fleetapi.RateUnits,
		Form: startRentalForm{
			Status:       string(fleetapi.RentalOpen),
			StartDate:    s.today(),
			RateUnit:     string(fleetapi.RateDaily),
			CounterStart: strconv.FormatFloat(equipment.HourCounter, 'f', -1, 64),
		},
	}
	s.loadSelectors(r, &page)
	if len(page.Customers) > 0 {
		page.Form.CustomerID = strconv.FormatInt(page.Customers[0].ID, 10)
	}
	s.render(w, "start_rental.tmpl", page)
}

func (s *Server) loadSelectors(r *http.Request, page *startRentalPage) {
	customers, err := s.client.ListCustomers(r.Context(), listLimit)
	if err != nil {
		s.logger.Warn("list customers for selector", "error", err)
	}
	page.Customers = customers

	sites, err := s.client.ListSites(r.Context(), 0, listLimit)
	if err != nil {
		s.logger.Warn("list sites for selector", "error", err)
	}
	page.Sites = sites
}

// handleStartRentalSubmit creates a rental or reservation. Validation
// failures re-render the form with the entered values; upstream rejections
// do the same with the API's message.
func (s *Server) handleStartRentalSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	form := startRentalForm{
		Status:       r.PostFormValue("status"),
		CustomerID:   strings.TrimSpace(r.PostFormValue("kunde_id")),
		SiteID:       strings.TrimSpace(r.PostFormValue("baustelle_id")),
		StartDate:    strings.TrimSpace(r.PostFormValue("start_datum")),
		EndDate:      strings.TrimSpace(r.PostFormValue("end_datum")),
		RateValue:    strings.TrimSpace(r.PostFormValue("preis_wert")),
		RateUnit:     r.PostFormValue("preis_einheit"),
		CounterStart: strings.TrimSpace(r.PostFormValue("zaehler_start")),
		Notes:        r.PostFormValue("notizen"),
	}

	rerender := func(msg string) {
		equipment, err := s.client.GetEquipment(r.Context(), id)
		if err != nil {
			s.setFlash(w, msg)
			http.Redirect(w, r, "/equipment", http.StatusSeeOther)
			return
		}
		page := startRentalPage{
			basePage:  s.base(w, r, "Vermietung anlegen", "equipment"),
			Equipment: *equipment,
			RateUnits: fleetapi.RateUnits,
			Form:      form,
			Error:     msg,
		}
		s.loadSelectors(r, &page)
		s.render(w, "start_rental.tmpl", page)
	}

	req, msg := buildCreateRental(id, form, s.today())
	if msg != "" {
		rerender(msg)
		return
	}

	created, err := s.client.CreateRental(r.Context(), req)
	if err != nil {
		s.logger.Error("create rental", "equipment_id", id, "error", err)
		rerender(upstreamMessage("Vermietung konnte nicht angelegt werden", err))
		return
	}

	noun := "Vermietung"
	if req.Status == fleetapi.RentalReserved {
		noun = "Reservierung"
	}
	s.setFlash(w, fmt.Sprintf("%s #%d angelegt.", noun, created.ID))
	http.Redirect(w, r, "/equipment", http.StatusSeeOther)
}

// buildCreateRental validates the form and assembles the request payload.
// A non-empty message means validation failed. A reservation carries no
// start counter; the counter is captured when the reservation starts.
func buildCreateRental(equipmentID int64, form startRentalForm, today string) (fleetapi.CreateRentalRequest, string) {
	var req fleetapi.CreateRentalRequest

	status := fleetapi.RentalStatus(form.Status)
	if status != fleetapi.RentalOpen && status != fleetapi.RentalReserved {
		return req, "Ungültiger Status."
	}

	customerID, err := strconv.ParseInt(form.CustomerID, 10, 64)
	if err != nil || customerID <= 0 {
		return req, "Bitte einen Kunden auswählen."
	}

	startDate := form.StartDate
	if startDate == "" {
		startDate = today
	}

	rateValue, err := strconv.ParseFloat(form.RateValue, 64)
	if err != nil || rateValue < 0 {
		return req, "Bitte einen gültigen Mietpreis angeben."
	}

	unit := fleetapi.RateUnit(form.RateUnit)
	if unit != fleetapi.RateDaily && unit != fleetapi.RateMonthly {
		return req, "Ungültige Preiseinheit."
	}

	req = fleetapi.CreateRentalRequest{
		EquipmentID: equipmentID,
		CustomerID:  customerID,
		Status:      status,
		StartDate:   startDate,
		RateValue:   rateValue,
		RateUnit:    unit,
		EndDate:     optString(form.EndDate),
		Notes:       optString(form.Notes),
	}

	if form.SiteID != "" {
		siteID, err := strconv.ParseInt(form.SiteID, 10, 64)
		if err != nil {
			return req, "Ungültige Baustelle."
		}
		req.SiteID = &siteID
	}

	if status == fleetapi.RentalOpen {
		counter := optFloat(form.CounterStart)
		if counter == nil {
			return req, "Bitte den Zählerstand bei Übergabe angeben."
		}
		req.CounterStart = counter
	}

	return req, ""
}

// upstreamMessage folds the fleet API's error body into a user notice.
func upstreamMessage(prefix string, err error) string {
	if apiErr, ok := err.(fleetapi.APIError); ok && apiErr.Body != "" {
		return fmt.Sprintf("%s: %s", prefix, apiErr.Body)
	}
	return prefix + "."
}
