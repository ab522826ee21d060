package models

import (
	"fmt"
	"math"
	"time"
)

// Order statuses. Tickets carry the same status as their order.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

// DefaultPaymentLabel is recorded when the caller does not name a payment method.
const DefaultPaymentLabel = "card"

// ISOTimeLayout is the fixed, zero-padded UTC layout used for every stored
// timestamp. Promo expiry relies on these strings comparing lexicographically.
const ISOTimeLayout = "2006-01-02T15:04:05.000Z"

// FormatISO renders t in ISOTimeLayout.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOTimeLayout)
}

// JSONB is a raw JSON column. Scan copies the driver's buffer, which may
// be reused for the next row.
type JSONB []byte

func (j *JSONB) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = JSONB(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONB", src)
	}
	return nil
}

func (j JSONB) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSONB) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}

// Actor represents a performer
type Actor struct {
	ID       int64   `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	PhotoURL *string `json:"photoUrl" db:"photo_url"`
	Bio      *string `json:"bio" db:"bio"`
}

// Venue represents a place where shows are played
type Venue struct {
	ID         int64   `json:"id" db:"id"`
	Name       string  `json:"name" db:"name"`
	City       *string `json:"city" db:"city"`
	Address    *string `json:"address" db:"address"`
	SeatingMap JSONB   `json:"seatingMap" db:"seating_json"`
}

// Show represents a catalog event
type Show struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	PosterURL   *string   `json:"posterUrl" db:"poster_url"`
	Description *string   `json:"description" db:"description"`
	DurationMin *int      `json:"durationMin" db:"duration_min"`
	Rating      float64   `json:"rating" db:"rating"`
	Popularity  int       `json:"popularity" db:"popularity"`
	VenueID     int64     `json:"venueId" db:"venue_id"`
	Genres      JSONB     `json:"genres" db:"genres_json"`
	Cast        JSONB     `json:"cast" db:"cast_ids_json"`
	Sessions    []Session `json:"sessions" db:"-"`
}

// Session is one scheduled occurrence of a show
type Session struct {
	ID            int64   `json:"id" db:"id"`
	ShowID        int64   `json:"-" db:"show_id"`
	DateISO       string  `json:"dateISO" db:"date_iso"`
	TimeISO       string  `json:"timeISO" db:"time_iso"`
	BasePrice     int64   `json:"basePrice" db:"base_price"`
	DynamicFactor float64 `json:"dynamicFactor" db:"dynamic_factor"`
}

// Order is one checkout transaction
type Order struct {
	ID           string   `json:"id" db:"id"`
	Name         string   `json:"name" db:"name"`
	Email        string   `json:"email" db:"email"`
	Phone        string   `json:"phone" db:"phone"`
	Payment      string   `json:"payment" db:"payment"`
	Subtotal     int64    `json:"subtotal" db:"subtotal"`
	Discount     int64    `json:"discount" db:"discount"`
	Total        int64    `json:"total" db:"total"`
	Status       string   `json:"status" db:"status"`
	CreatedAtISO string   `json:"created_at_iso" db:"created_at_iso"`
	Tickets      []Ticket `json:"tickets" db:"-"`
}

// Ticket is a seat claim bound to an order
type Ticket struct {
	OrderID   string `json:"-" db:"order_id"`
	SessionID int64  `json:"sessionId" db:"session_id"`
	Row       int    `json:"row" db:"row"`
	Col       int    `json:"col" db:"col"`
	Price     int64  `json:"price" db:"price"`
}

// Seat identifies a place in a session's hall
type Seat struct {
	Row int `json:"row" db:"row"`
	Col int `json:"col" db:"col"`
}

// Promo is a discount code
type Promo struct {
	Code            string  `json:"code" db:"code"`
	DiscountPercent int     `json:"discountPercent" db:"discount_percent"`
	ValidUntilISO   *string `json:"validUntilISO" db:"valid_until_iso"`
}

// AppliesAt reports whether the promo is still valid at asOfISO.
// The expiry bound is inclusive.
func (p *Promo) AppliesAt(asOfISO string) bool {
	if p.ValidUntilISO == nil || *p.ValidUntilISO == "" {
		return true
	}
	return *p.ValidUntilISO >= asOfISO
}

// Customer holds the buyer's contact details
type Customer struct {
	Name  string
	Email string
	Phone string
}

// Complete reports whether all contact fields are filled in.
func (c Customer) Complete() bool {
	return c.Name != "" && c.Email != "" && c.Phone != ""
}

// OrderItem is one requested seat with the price the caller quoted for it
type OrderItem struct {
	SessionID int64
	Row       int
	Col       int
	Price     int64
}

// PlaceOrderRequest is the validated input of the booking engine
type PlaceOrderRequest struct {
	Customer  Customer
	Items     []OrderItem
	Payment   string
	PromoCode string
}

// PlaceOrderResult is what a successful booking returns
type PlaceOrderResult struct {
	OrderID string `json:"orderId"`
	Total   int64  `json:"total"`
}

// Pricing holds the monetary fields of an order
type Pricing struct {
	Subtotal int64
	Discount int64
	Total    int64
}

// MaxAmount is the largest price or order subtotal the money columns hold.
const MaxAmount int64 = math.MaxInt32

// ComputePricing sums item prices and applies percent (0 for no promo).
// The discount is rounded half up and the total never drops below zero.
// A subtotal past math.MaxInt64 saturates; callers bound it by MaxAmount.
func ComputePricing(items []OrderItem, percent int) Pricing {
	var subtotal int64
	for _, it := range items {
		if it.Price > 0 && subtotal > math.MaxInt64-it.Price {
			subtotal = math.MaxInt64
			continue
		}
		subtotal += it.Price
	}
	var discount int64
	if percent > 0 && subtotal > 0 {
		p := int64(percent)
		discount = subtotal/100*p + (subtotal%100*p+50)/100
	}
	total := subtotal - discount
	if total < 0 {
		total = 0
	}
	return Pricing{Subtotal: subtotal, Discount: discount, Total: total}
}

// SessionStats aggregates sales for one session
type SessionStats struct {
	SessionID int64 `json:"sessionId" db:"session_id"`
	SoldSeats int64 `json:"soldSeats" db:"sold_seats"`
	Revenue   int64 `json:"revenue" db:"revenue"`
	Orders    int64 `json:"orders" db:"orders"`
}

// TableSummary is one row of the admin overview
type TableSummary struct {
	Name string `json:"name" db:"table_name"`
	Rows int64  `json:"rows" db:"n"`
}

// TableDump is a rendered slice of one table for the admin console
type TableDump struct {
	Table   string
	Columns []string
	Rows    [][]string
}
