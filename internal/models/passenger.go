package models

import (
	"time"

	"github.com/google/uuid"
)

// Passenger — пассажир в рамках одной поездки. Данные должны быть заведены
// до передачи брони провайдеру. Дубликаты внутри поездки запрещены
// ограничением (trip_id, first_name, last_name, birthdate).
type Passenger struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	TripID     uuid.UUID `db:"trip_id" json:"trip_id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	MiddleName *string   `db:"middle_name" json:"middle_name,omitempty"`
	LastName   string    `db:"last_name" json:"last_name"`
	Gender     string    `db:"gender" json:"gender"`
	Birthdate  time.Time `db:"birthdate" json:"birthdate"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// FullName возвращает имя пассажира так, как оно уйдёт в бронь.
func (p *Passenger) FullName() string {
	if p.MiddleName != nil && *p.MiddleName != "" {
		return p.FirstName + " " + *p.MiddleName + " " + p.LastName
	}
	return p.FirstName + " " + p.LastName
}
