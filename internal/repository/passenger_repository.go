package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/flytster-backend/internal/models"
)

// ErrPassengerNotFound возвращается, когда пассажир не найден.
var ErrPassengerNotFound = errors.New("passenger not found")

// ErrPassengerExists возвращается при повторном добавлении того же
// пассажира в поездку.
var ErrPassengerExists = errors.New("passenger already added to trip")

// PassengerRepository отвечает за таблицу passengers.
type PassengerRepository struct {
	db *sqlx.DB
}

// NewPassengerRepository создаёт экземпляр репозитория.
func NewPassengerRepository(db *sqlx.DB) *PassengerRepository {
	return &PassengerRepository{db: db}
}

// Create добавляет пассажира к поездке. Дубликат внутри поездки
// отлавливается ограничением (trip_id, first_name, last_name, birthdate).
func (r *PassengerRepository) Create(ctx context.Context, passenger *models.Passenger) error {
	query := `
		INSERT INTO passengers (user_id, trip_id, first_name, middle_name, last_name, gender, birthdate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		passenger.UserID, passenger.TripID, passenger.FirstName, passenger.MiddleName,
		passenger.LastName, passenger.Gender, passenger.Birthdate,
	).Scan(&passenger.ID, &passenger.CreatedAt); err != nil {
		if isUniqueViolation(err, "trip_id") {
			return ErrPassengerExists
		}
		return fmt.Errorf("passenger repository: create %w", err)
	}
	return nil
}

// GetByID возвращает пассажира, принадлежащего пользователю.
func (r *PassengerRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Passenger, error) {
	var passenger models.Passenger
	query := `SELECT * FROM passengers WHERE id = $1 AND user_id = $2`
	if err := r.db.GetContext(ctx, &passenger, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPassengerNotFound
		}
		return nil, fmt.Errorf("passenger repository: get by id %w", err)
	}
	return &passenger, nil
}

// ListByTrip возвращает пассажиров поездки в порядке добавления.
func (r *PassengerRepository) ListByTrip(ctx context.Context, tripID, userID uuid.UUID) ([]models.Passenger, error) {
	passengers := make([]models.Passenger, 0)
	query := `SELECT * FROM passengers WHERE trip_id = $1 AND user_id = $2 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &passengers, query, tripID, userID); err != nil {
		return nil, fmt.Errorf("passenger repository: list by trip %w", err)
	}
	return passengers, nil
}

// Update сохраняет изменённые данные пассажира.
func (r *PassengerRepository) Update(ctx context.Context, passenger *models.Passenger) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE passengers
		SET first_name = $1, middle_name = $2, last_name = $3, gender = $4, birthdate = $5
		WHERE id = $6 AND user_id = $7
	`, passenger.FirstName, passenger.MiddleName, passenger.LastName,
		passenger.Gender, passenger.Birthdate, passenger.ID, passenger.UserID)
	if err != nil {
		if isUniqueViolation(err, "trip_id") {
			return ErrPassengerExists
		}
		return fmt.Errorf("passenger repository: update %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPassengerNotFound
	}
	return nil
}

// Delete убирает пассажира из поездки.
func (r *PassengerRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM passengers WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("passenger repository: delete %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPassengerNotFound
	}
	return nil
}
