package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/flytster-backend/internal/models"
)

// ErrorResponse represents a standardized error payload
type ErrorResponse struct {
	Error string `json:"error"`
}

// UserResponse represents the user profile payload. EmailPending and
// PhonePending are set only while a live verification token exists.
// Token is present when the request issued a new session.
type UserResponse struct {
	ID                   uuid.UUID  `json:"id"`
	Email                string     `json:"email"`
	EmailVerified        bool       `json:"email_verified"`
	EmailPending         *string    `json:"email_pending"`
	FirstName            string     `json:"first_name"`
	LastName             string     `json:"last_name"`
	Phone                *string    `json:"phone"`
	PhoneVerified        bool       `json:"phone_verified"`
	PhonePending         *string    `json:"phone_pending"`
	ReceiveNotifications bool       `json:"receive_notifications"`
	LastLoginAt          *time.Time `json:"last_login_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	Token                string     `json:"token,omitempty"`
}

// NewUserResponse builds a profile payload.
func NewUserResponse(user *models.User, pendingEmail, pendingPhone *string) UserResponse {
	return UserResponse{
		ID:                   user.ID,
		Email:                user.Email,
		EmailVerified:        user.EmailVerified,
		EmailPending:         pendingEmail,
		FirstName:            user.FirstName,
		LastName:             user.LastName,
		Phone:                user.Phone,
		PhoneVerified:        user.PhoneVerified,
		PhonePending:         pendingPhone,
		ReceiveNotifications: user.ReceiveNotifications,
		LastLoginAt:          user.LastLoginAt,
		CreatedAt:            user.CreatedAt,
	}
}

// TripSearchResponse represents a saved flight search
type TripSearchResponse struct {
	ID            uuid.UUID `json:"id"`
	RoundTrip     bool      `json:"round_trip"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureDate string    `json:"departure_date"`
	ReturnDate    *string   `json:"return_date,omitempty"`
	Cabin         string    `json:"cabin"`
	Carrier       string    `json:"carrier"`
	Price         string    `json:"price"`
	Expiration    time.Time `json:"expiration"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewTripSearchResponse builds a search payload.
func NewTripSearchResponse(search *models.TripSearch) TripSearchResponse {
	return TripSearchResponse{
		ID:            search.ID,
		RoundTrip:     search.RoundTrip,
		Origin:        search.Origin,
		Destination:   search.Destination,
		DepartureDate: search.DepartureDate,
		ReturnDate:    search.ReturnDate,
		Cabin:         search.Cabin,
		Carrier:       search.Carrier,
		Price:         search.Price,
		Expiration:    search.Expiration,
		CreatedAt:     search.CreatedAt,
	}
}

// TripResponse represents a booked trip
type TripResponse struct {
	ID            uuid.UUID `json:"id"`
	TripSearchID  uuid.UUID `json:"trip_search_id"`
	CurrentPrice  string    `json:"current_price"`
	CheapestPrice string    `json:"cheapest_price"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewTripResponse builds a trip payload.
func NewTripResponse(trip *models.Trip) TripResponse {
	return TripResponse{
		ID:            trip.ID,
		TripSearchID:  trip.TripSearchID,
		CurrentPrice:  trip.CurrentPrice,
		CheapestPrice: trip.CheapestPrice,
		CreatedAt:     trip.CreatedAt,
	}
}

// PassengerResponse represents a trip passenger
type PassengerResponse struct {
	ID         uuid.UUID `json:"id"`
	TripID     uuid.UUID `json:"trip_id"`
	FirstName  string    `json:"first_name"`
	MiddleName *string   `json:"middle_name,omitempty"`
	LastName   string    `json:"last_name"`
	Gender     string    `json:"gender"`
	Birthdate  string    `json:"birthdate"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewPassengerResponse builds a passenger payload.
func NewPassengerResponse(passenger *models.Passenger) PassengerResponse {
	return PassengerResponse{
		ID:         passenger.ID,
		TripID:     passenger.TripID,
		FirstName:  passenger.FirstName,
		MiddleName: passenger.MiddleName,
		LastName:   passenger.LastName,
		Gender:     passenger.Gender,
		Birthdate:  passenger.Birthdate.Format("2006-01-02"),
		CreatedAt:  passenger.CreatedAt,
	}
}
