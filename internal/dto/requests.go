package dto

import "encoding/json"

// NullableString distinguishes an absent JSON field from an explicit null.
// Set is true whenever the field was present in the request body.
type NullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON is called by encoding/json only for present fields,
// so Set marks field presence and Value stays nil for explicit null.
func (ns *NullableString) UnmarshalJSON(data []byte) error {
	ns.Set = true
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	ns.Value = &s
	return nil
}

// RegisterRequest represents the request to register a new user
type RegisterRequest struct {
	Email     string `json:"email" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

// LoginRequest represents the request to log in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest represents a partial profile update.
// Changing email or phone starts a verification flow instead of
// applying the new value directly.
type UpdateUserRequest struct {
	FirstName            *string        `json:"first_name"`
	LastName             *string        `json:"last_name"`
	Email                *string        `json:"email"`
	Phone                NullableString `json:"phone"`
	ReceiveNotifications *bool          `json:"receive_notifications"`
}

// VerifyTokenRequest carries a verification token value
type VerifyTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// ChangePasswordRequest represents the request to change the password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// RequestPasswordRequest asks for a password reset token by email
type RequestPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest consumes a reset token and sets a new password
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TripSearchRequest represents the request to search for flights
type TripSearchRequest struct {
	RoundTrip     bool    `json:"round_trip"`
	Origin        string  `json:"origin" binding:"required"`
	Destination   string  `json:"destination" binding:"required"`
	DepartureDate string  `json:"departure_date" binding:"required"`
	ReturnDate    *string `json:"return_date"`
	Cabin         string  `json:"cabin" binding:"required"`
}

// BookTripRequest represents the request to book a saved search
type BookTripRequest struct {
	TripSearchID string `json:"trip_search_id" binding:"required"`
}

// PassengerRequest represents passenger data for a trip
type PassengerRequest struct {
	FirstName  string  `json:"first_name" binding:"required"`
	MiddleName *string `json:"middle_name"`
	LastName   string  `json:"last_name" binding:"required"`
	Gender     string  `json:"gender" binding:"required"`
	Birthdate  string  `json:"birthdate" binding:"required"`
}
