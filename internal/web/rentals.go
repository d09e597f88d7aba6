package web

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/flottenwerk/konsole/internal/fleetapi"
)

// rentalRow is a rental plus the resolved display names for its board row.
type rentalRow struct {
	fleetapi.Rental
	EquipmentName string
	CustomerName  string
}

type rentalBoardPage struct {
	basePage
	Query     listQuery
	Rows      []rentalRow
	LoadError string
	Statuses  []fleetapi.RentalStatus
}

// handleRentalBoard renders the rentals list. An anchor parameter names a
// rental the user navigated here for (invoice search); if it is on the
// current page the board redirects straight to its detail view.
func (s *Server) handleRentalBoard(w http.ResponseWriter, r *http.Request) {
	lq := s.parseListQuery(r)

	items, err := s.client.ListRentals(r.Context(), fleetapi.ListRentalsParams{
		Status: fleetapi.RentalStatus(lq.Status),
		Limit:  lq.Limit,
		Offset: lq.Offset,
	})
	if err != nil {
		s.logger.Error("list rentals", "error", err)
	}

	if anchor, perr := strconv.ParseInt(r.URL.Query().Get("anchor"), 10, 64); perr == nil && anchor > 0 {
		for _, v := range items {
			if v.ID == anchor {
				http.Redirect(w, r, fmt.Sprintf("/rentals/%d", anchor), http.StatusSeeOther)
				return
			}
		}
	}

	page := rentalBoardPage{
		basePage: s.base(w, r, "Vermietungen", "rentals"),
		Query:    lq,
		Statuses: fleetapi.RentalStatuses,
	}
	if err != nil {
		page.LoadError = "Vermietungen konnten nicht geladen werden."
	}
	page.Rows = s.resolveRows(r, items)

	s.render(w, "rentals.tmpl", page)
}

// resolveRows attaches equipment and customer display names to each rental.
// A failed lookup leaves a dash; name resolution never fails the board.
func (s *Server) resolveRows(r *http.Request, items []fleetapi.Rental) []rentalRow {
	rows := make([]rentalRow, 0, len(items))
	for _, v := range items {
		row := rentalRow{Rental: v, EquipmentName: "–", CustomerName: "–"}
		if name, err := s.resolver.EquipmentName(r.Context(), v.EquipmentID); err == nil {
			row.EquipmentName = name
		}
		if name, err := s.resolver.CustomerName(r.Context(), v.CustomerID); err == nil {
			row.CustomerName = name
		}
		rows = append(rows, row)
	}
	return rows
}

type rentalDetailPage struct {
	basePage
	Rental        fleetapi.Rental
	EquipmentName string
	CustomerName  string
	Summary       *fleetapi.BillingSummary
	Items         []fleetapi.LineItem
	Invoices      []fleetapi.Invoice
	ItemTypes     []fleetapi.LineItemType
	Today         string
}

// handleRentalDetail renders one rental with its billing summary, line
// items, and invoices. The three sub-loads run concurrently and each
// tolerates failure independently: a missing billing summary (normal for
// open rentals) must not blank out the line items.
func (s *Server) handleRentalDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	rental, err := s.client.GetRental(r.Context(), id)
	if err != nil {
		s.logger.Error("get rental", "id", id, "error", err)
		s.setFlash(w, fmt.Sprintf("Vermietung %d konnte nicht geladen werden.", id))
		http.Redirect(w, r, "/rentals", http.StatusSeeOther)
		return
	}

	page := rentalDetailPage{
		basePage:  s.base(w, r, fmt.Sprintf("Vermietung #%d", id), "rentals"),
		Rental:    *rental,
		ItemTypes: fleetapi.LineItemTypes,
		Today:     s.today(),
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		summary, err := s.client.BillingSummary(r.Context(), id)
		if err != nil {
			s.logger.Debug("billing summary unavailable", "rental_id", id, "error", err)
			return
		}
		page.Summary = summary
	}()
	go func() {
		defer wg.Done()
		items, err := s.client.ListLineItems(r.Context(), id, listLimit)
		if err != nil {
			s.logger.Warn("list line items", "rental_id", id, "error", err)
			return
		}
		page.Items = items
	}()
	go func() {
		defer wg.Done()
		invoices, err := s.client.ListInvoices(r.Context(), id, listLimit)
		if err != nil {
			s.logger.Warn("list invoices", "rental_id", id, "error", err)
			return
		}
		page.Invoices = invoices
	}()
	wg.Wait()

	page.EquipmentName = "–"
	page.CustomerName = "–"
	if name, err := s.resolver.EquipmentName(r.Context(), rental.EquipmentID); err == nil {
		page.EquipmentName = name
	}
	if name, err := s.resolver.CustomerName(r.Context(), rental.CustomerID); err == nil {
		page.CustomerName = name
	}

	s.render(w, "rental_detail.tmpl", page)
}

// handleRentalStart starts a reserved rental. The counter field is optional;
// left blank, the fleet API takes over the equipment's current counter.
func (s *Server) handleRentalStart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	req := fleetapi.StartRentalRequest{
		StartDate:    s.today(),
		CounterStart: optFloat(r.PostFormValue("zaehler_start")),
	}
	if d := r.PostFormValue("start_datum"); d != "" {
		req.StartDate = d
	}

	if _, err := s.client.StartRental(r.Context(), id, req); err != nil {
		s.logger.Error("start rental", "id", id, "error", err)
		s.setFlash(w, upstreamMessage("Reservierung konnte nicht gestartet werden", err))
	} else {
		s.setFlash(w, "Reservierung gestartet.")
	}
	http.Redirect(w, r, fmt.Sprintf("/rentals/%d", id), http.StatusSeeOther)
}

// handleRentalClose closes an open rental as of today. The counter-end and
// actual-hours fields are optional and omitted when blank.
func (s *Server) handleRentalClose(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	req := fleetapi.CloseRentalRequest{
		EndDate:     s.today(),
		CounterEnd:  optFloat(r.PostFormValue("zaehler_ende")),
		ActualHours: optFloat(r.PostFormValue("stunden_ist")),
	}

	if _, err := s.client.CloseRental(r.Context(), id, req); err != nil {
		s.logger.Error("close rental", "id", id, "error", err)
		s.setFlash(w, upstreamMessage("Vermietung konnte nicht geschlossen werden", err))
	} else {
		s.setFlash(w, "Vermietung geschlossen.")
	}
	http.Redirect(w, r, fmt.Sprintf("/rentals/%d", id), http.StatusSeeOther)
}

// handleAddLineItem records a line item. Quantity defaults to 1, prices to
// 0, matching the fleet API's own defaults.
func (s *Server) handleAddLineItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	itemType := fleetapi.LineItemType(r.PostFormValue("typ"))
	if itemType == "" {
		itemType = fleetapi.ItemAssembly
	}
	req := fleetapi.AddLineItemRequest{
		Type:      itemType,
		Quantity:  floatOr(r.PostFormValue("menge"), 1),
		UnitPrice: floatOr(r.PostFormValue("preis_einzel"), 0),
		UnitCost:  floatOr(r.PostFormValue("kosten_einzel"), 0),
		Text:      optString(r.PostFormValue("text")),
	}

	if _, err := s.client.AddLineItem(r.Context(), id, req); err != nil {
		s.logger.Error("add line item", "rental_id", id, "error", err)
		s.setFlash(w, upstreamMessage("Position konnte nicht angelegt werden", err))
	} else {
		s.setFlash(w, "Position hinzugefügt.")
	}
	http.Redirect(w, r, fmt.Sprintf("/rentals/%d", id), http.StatusSeeOther)
}

// handleAddInvoice records an invoice. The number is required; the net
// amount and date are optional.
func (s *Server) handleAddInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	number := optString(r.PostFormValue("nummer"))
	if number == nil {
		s.setFlash(w, "Bitte eine Rechnungsnummer angeben.")
		http.Redirect(w, r, fmt.Sprintf("/rentals/%d", id), http.StatusSeeOther)
		return
	}

	req := fleetapi.AddInvoiceRequest{
		Number:    *number,
		Date:      optString(r.PostFormValue("datum")),
		NetAmount: optFloat(r.PostFormValue("betrag_netto")),
	}

	if _, err := s.client.AddInvoice(r.Context(), id, req); err != nil {
		s.logger.Error("add invoice", "rental_id", id, "error", err)
		s.setFlash(w, upstreamMessage("Rechnung konnte nicht angelegt werden", err))
	} else {
		s.setFlash(w, fmt.Sprintf("Rechnung %s erfasst.", *number))
	}
	http.Redirect(w, r, fmt.Sprintf("/rentals/%d", id), http.StatusSeeOther)
}
