package models

import (
	"time"

	"github.com/google/uuid"
)

// Классы обслуживания, принимаемые поиском.
const (
	CabinCoach        = "COACH"
	CabinPremiumCoach = "PREMIUM_COACH"
	CabinBusiness     = "BUSINESS"
	CabinFirst        = "FIRST"
)

// TripSearch — сохранённый результат поиска у внешнего прайс-провайдера.
// Цена действительна до Expiration; бронировать можно только свежий поиск.
type TripSearch struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	RoundTrip     bool      `db:"round_trip" json:"round_trip"`
	Origin        string    `db:"origin" json:"origin"`
	Destination   string    `db:"destination" json:"destination"`
	DepartureDate string    `db:"departure_date" json:"departure_date"`
	ReturnDate    *string   `db:"return_date" json:"return_date,omitempty"`
	Cabin         string    `db:"cabin" json:"cabin"`
	Carrier       string    `db:"carrier" json:"carrier"`
	Price         string    `db:"price" json:"price"`
	Expiration    time.Time `db:"expiration" json:"expiration"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Trip — оформленная поездка, созданная из результата поиска.
type Trip struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	TripSearchID  uuid.UUID `db:"trip_search_id" json:"trip_search_id"`
	CurrentPrice  string    `db:"current_price" json:"current_price"`
	CheapestPrice string    `db:"cheapest_price" json:"cheapest_price"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
