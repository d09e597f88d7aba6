package fleetapi

// EquipmentStatus is the lifecycle state of a piece of equipment. The values
// are the German wire names used by the fleet API.
type EquipmentStatus string

const (
	EquipmentAvailable   EquipmentStatus = "VERFUEGBAR"
	EquipmentRented      EquipmentStatus = "VERMIETET"
	EquipmentMaintenance EquipmentStatus = "WARTUNG"
	EquipmentRetired     EquipmentStatus = "AUSGEMUSTERT"
)

// EquipmentStatuses lists all equipment statuses in display order.
var EquipmentStatuses = []EquipmentStatus{
	EquipmentAvailable,
	EquipmentRented,
	EquipmentMaintenance,
	EquipmentRetired,
}

// LocationType says whether equipment currently sits in a depot or with a
// customer. Location fields are set only by the fleet API in response to
// lifecycle actions; the console never writes them.
type LocationType string

const (
	LocationDepot    LocationType = "MIETPARK"
	LocationCustomer LocationType = "KUNDE"
)

// LocationTypes lists all location types in display order.
var LocationTypes = []LocationType{LocationDepot, LocationCustomer}

// RentalStatus is the lifecycle state of a rental agreement. Transitions
// (reserved → open → closed, cancelled from any non-closed state) are
// enforced by the fleet API.
type RentalStatus string

const (
	RentalReserved  RentalStatus = "RESERVIERT"
	RentalOpen      RentalStatus = "OFFEN"
	RentalClosed    RentalStatus = "GESCHLOSSEN"
	RentalCancelled RentalStatus = "STORNIERT"
)

// RentalStatuses lists all rental statuses in display order.
var RentalStatuses = []RentalStatus{
	RentalReserved,
	RentalOpen,
	RentalClosed,
	RentalCancelled,
}

// RateUnit is the billing period of a rental rate.
type RateUnit string

const (
	RateDaily   RateUnit = "TAEGLICH"
	RateMonthly RateUnit = "MONATLICH"
)

// RateUnits lists all rate units in display order.
var RateUnits = []RateUnit{RateDaily, RateMonthly}

// LineItemType classifies a billable line item on a rental.
type LineItemType string

const (
	ItemAssembly   LineItemType = "MONTAGE"
	ItemSparePart  LineItemType = "ERSATZTEIL"
	ItemServiceFee LineItemType = "SERVICEPAUSCHALE"
	ItemInsurance  LineItemType = "VERSICHERUNG"
	ItemOther      LineItemType = "SONSTIGES"
)

// LineItemTypes lists all line-item types in display order.
var LineItemTypes = []LineItemType{
	ItemAssembly,
	ItemSparePart,
	ItemServiceFee,
	ItemInsurance,
	ItemOther,
}

// Dates on the wire are plain "YYYY-MM-DD" strings; parsing happens only
// where arithmetic is needed (see internal/reports).

// Equipment mirrors the fleet API's equipment record.
type Equipment struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"kategorie"`
	Model         *string         `json:"modell,omitempty"`
	Serial        *string         `json:"seriennummer,omitempty"`
	Status        EquipmentStatus `json:"status"`
	HourCounter   float64         `json:"stundenzaehler"`
	HoursPerDay   int             `json:"stunden_pro_tag"`
	PurchaseDate  *string         `json:"kauf_datum,omitempty"`
	PurchasePrice float64         `json:"anschaffungspreis"`
	Location      LocationType    `json:"standort_typ"`
	HomeDepotID   *int64          `json:"heim_mietpark_id,omitempty"`
	CurrentDepot  *int64          `json:"akt_mietpark_id,omitempty"`
	CurrentSiteID *int64          `json:"akt_baustelle_id,omitempty"`
	OwnerID       *int64          `json:"eigentuemer_firma_id,omitempty"`
}

// Customer mirrors the fleet API's customer record.
type Customer struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"telefon,omitempty"`
	BillingAddress *string `json:"rechnungsadresse,omitempty"`
	TaxID          *string `json:"ust_id,omitempty"`
}

// Site is a construction site, optionally belonging to a customer.
type Site struct {
	ID         int64   `json:"id"`
	CustomerID *int64  `json:"kunde_id,omitempty"`
	Name       string  `json:"name"`
	Address    *string `json:"adresse,omitempty"`
	City       *string `json:"stadt,omitempty"`
	Country    *string `json:"land,omitempty"`
}

// Rental is a rental agreement: one equipment unit assigned to one customer
// for a period at a fixed rate.
type Rental struct {
	ID           int64        `json:"id"`
	EquipmentID  int64        `json:"geraet_id"`
	CustomerID   int64        `json:"kunde_id"`
	SiteID       *int64       `json:"baustelle_id,omitempty"`
	StartDate    string       `json:"start_datum"`
	EndDate      *string      `json:"end_datum,omitempty"`
	RateValue    float64      `json:"satz_wert"`
	RateUnit     RateUnit     `json:"satz_einheit"`
	Status       RentalStatus `json:"status"`
	ActualHours  *float64     `json:"stunden_ist,omitempty"`
	CounterStart *float64     `json:"zaehler_start,omitempty"`
	CounterEnd   *float64     `json:"zaehler_ende,omitempty"`
	Notes        *string      `json:"notizen,omitempty"`
}

// LineItem is a billable or cost-bearing item attached to a rental.
type LineItem struct {
	ID        int64        `json:"id"`
	RentalID  int64        `json:"vermietung_id"`
	Type      LineItemType `json:"typ"`
	Text      *string      `json:"text,omitempty"`
	Quantity  float64      `json:"menge"`
	Unit      string       `json:"einheit"`
	UnitPrice float64      `json:"preis_einzel"`
	UnitCost  float64      `json:"kosten_einzel"`
}

// Invoice is an invoice recorded against a rental. Number uniqueness is
// enforced by the fleet API.
type Invoice struct {
	ID        int64    `json:"id"`
	RentalID  int64    `json:"vermietung_id"`
	Number    string   `json:"nummer"`
	Date      string   `json:"datum"`
	NetAmount *float64 `json:"betrag_netto,omitempty"`
	Paid      bool     `json:"bezahlt"`
}

// BillingSummary is the derived revenue/cost/margin projection for a single
// rental, computed by the fleet API on request.
type BillingSummary struct {
	Rent            float64 `json:"miete"`
	LineItemRevenue float64 `json:"positionen_einnahmen"`
	TotalRevenue    float64 `json:"einnahmen_gesamt"`
	TotalCost       float64 `json:"kosten_gesamt"`
	Margin          float64 `json:"marge"`
}

// Utilization is the fleet-wide utilization report for a date window.
// Ratios are in [0,1]; PerEquipment is keyed by the equipment id as a string
// because JSON object keys must be strings.
type Utilization struct {
	WindowStart  string             `json:"fenster_start"`
	WindowEnd    string             `json:"fenster_ende"`
	Fleet        float64            `json:"flotte"`
	PerEquipment map[string]float64 `json:"pro_geraet"`
}

// InvoiceSearchResult is the outcome of an invoice-number search.
type InvoiceSearchResult struct {
	InvoiceID int64 `json:"rechnung_id"`
	RentalID  int64 `json:"vermietung_id"`
}

// IDResponse is the fleet API's reply to every creation request.
type IDResponse struct {
	ID int64 `json:"id"`
}

// CreateEquipmentRequest creates a new equipment record. Status and location
// are assigned server-side.
type CreateEquipmentRequest struct {
	Name          string  `json:"name"`
	Category      string  `json:"kategorie"`
	Model         *string `json:"modell,omitempty"`
	Serial        *string `json:"seriennummer,omitempty"`
	HourCounter   float64 `json:"stundenzaehler"`
	HoursPerDay   int     `json:"stunden_pro_tag"`
	PurchaseDate  *string `json:"kauf_datum,omitempty"`
	PurchasePrice float64 `json:"anschaffungspreis"`
	HomeDepotID   *int64  `json:"heim_mietpark_id,omitempty"`
}

// CreateCustomerRequest creates a new customer. Only the name is required.
type CreateCustomerRequest struct {
	Name           string  `json:"name"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"telefon,omitempty"`
	BillingAddress *string `json:"rechnungsadresse,omitempty"`
	TaxID          *string `json:"ust_id,omitempty"`
}

// CreateSiteRequest creates a new construction site for a customer.
type CreateSiteRequest struct {
	CustomerID int64   `json:"kunde_id"`
	Name       string  `json:"name"`
	Address    *string `json:"adresse,omitempty"`
	City       *string `json:"stadt,omitempty"`
	Country    *string `json:"land,omitempty"`
}

// CreateRentalRequest opens a rental (status OFFEN) or books a reservation
// (status RESERVIERT). CounterStart must be nil for reservations; the counter
// is captured when the reservation is started.
type CreateRentalRequest struct {
	EquipmentID  int64        `json:"geraet_id"`
	CustomerID   int64        `json:"kunde_id"`
	StartDate    string       `json:"start_datum"`
	EndDate      *string      `json:"end_datum,omitempty"`
	RateValue    float64      `json:"satz_wert"`
	RateUnit     RateUnit     `json:"satz_einheit"`
	CounterStart *float64     `json:"zaehler_start,omitempty"`
	SiteID       *int64       `json:"baustelle_id,omitempty"`
	Notes        *string      `json:"notizen,omitempty"`
	Status       RentalStatus `json:"status"`
}

// StartRentalRequest starts a reserved rental. A nil CounterStart tells the
// fleet API to take over the equipment's current counter.
type StartRentalRequest struct {
	StartDate    string   `json:"start_datum"`
	CounterStart *float64 `json:"zaehler_start,omitempty"`
	SiteID       *int64   `json:"baustelle_id,omitempty"`
}

// CloseRentalRequest closes an open rental. ActualHours is only meaningful
// for equipment without counter tracking and is omitted when not entered.
type CloseRentalRequest struct {
	EndDate       string   `json:"end_datum"`
	CounterEnd    *float64 `json:"zaehler_ende,omitempty"`
	ActualHours   *float64 `json:"stunden_ist,omitempty"`
	ReturnDepotID *int64   `json:"rueckgabe_mietpark_id,omitempty"`
}

// AddLineItemRequest records a line item on a rental. Unit defaults to "STK"
// server-side when omitted.
type AddLineItemRequest struct {
	Type      LineItemType `json:"typ"`
	Quantity  float64      `json:"menge"`
	UnitPrice float64      `json:"preis_einzel"`
	UnitCost  float64      `json:"kosten_einzel"`
	Unit      *string      `json:"einheit,omitempty"`
	Text      *string      `json:"text,omitempty"`
}

// AddInvoiceRequest records an invoice on a rental. Date defaults to today
// server-side when omitted.
type AddInvoiceRequest struct {
	Number    string   `json:"nummer"`
	Date      *string  `json:"datum,omitempty"`
	NetAmount *float64 `json:"betrag_netto,omitempty"`
}
