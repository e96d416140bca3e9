package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/flytster-backend/internal/models"
	"github.com/ignatzorin/flytster-backend/internal/repository/common"
)

// ErrTripSearchNotFound возвращается, когда сохранённый поиск не найден.
var ErrTripSearchNotFound = errors.New("trip search not found")

// ErrTripNotFound возвращается, когда поездка не найдена.
var ErrTripNotFound = errors.New("trip not found")

// ErrSearchAlreadyBooked возвращается при повторном бронировании поиска.
var ErrSearchAlreadyBooked = errors.New("trip search already booked")

// TripRepository отвечает за таблицы trip_searches и trips.
type TripRepository struct {
	db *sqlx.DB
}

// NewTripRepository создаёт экземпляр репозитория.
func NewTripRepository(db *sqlx.DB) *TripRepository {
	return &TripRepository{db: db}
}

// CreateSearch сохраняет результат поиска.
func (r *TripRepository) CreateSearch(ctx context.Context, search *models.TripSearch) error {
	query := `
		INSERT INTO trip_searches (user_id, round_trip, origin, destination, departure_date,
			return_date, cabin, carrier, price, expiration)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		search.UserID, search.RoundTrip, search.Origin, search.Destination,
		search.DepartureDate, search.ReturnDate, search.Cabin, search.Carrier,
		search.Price, search.Expiration,
	).Scan(&search.ID, &search.CreatedAt); err != nil {
		return fmt.Errorf("trip repository: create search %w", err)
	}
	return nil
}

// GetSearch возвращает поиск, принадлежащий пользователю.
func (r *TripRepository) GetSearch(ctx context.Context, id, userID uuid.UUID) (*models.TripSearch, error) {
	var search models.TripSearch
	query := `SELECT * FROM trip_searches WHERE id = $1 AND user_id = $2`
	if err := r.db.GetContext(ctx, &search, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTripSearchNotFound
		}
		return nil, fmt.Errorf("trip repository: get search %w", err)
	}
	return &search, nil
}

// ListSearches возвращает сохранённые поиски пользователя, свежие первыми.
func (r *TripRepository) ListSearches(ctx context.Context, userID uuid.UUID) ([]models.TripSearch, error) {
	searches := []models.TripSearch{}
	query := `SELECT * FROM trip_searches WHERE user_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &searches, query, userID); err != nil {
		return nil, fmt.Errorf("trip repository: list searches %w", err)
	}
	return searches, nil
}

// CreateTrip оформляет поездку из поиска. Уникальность trip_search_id
// не даёт забронировать один поиск дважды.
func (r *TripRepository) CreateTrip(ctx context.Context, trip *models.Trip) error {
	query := `
		INSERT INTO trips (user_id, trip_search_id, current_price, cheapest_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		trip.UserID, trip.TripSearchID, trip.CurrentPrice, trip.CheapestPrice,
	).Scan(&trip.ID, &trip.CreatedAt); err != nil {
		if isUniqueViolation(err, "trip_search_id") {
			return ErrSearchAlreadyBooked
		}
		return fmt.Errorf("trip repository: create trip %w", err)
	}
	return nil
}

// GetTrip возвращает поездку, принадлежащую пользователю.
func (r *TripRepository) GetTrip(ctx context.Context, id, userID uuid.UUID) (*models.Trip, error) {
	var trip models.Trip
	query := `SELECT * FROM trips WHERE id = $1 AND user_id = $2`
	if err := r.db.GetContext(ctx, &trip, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("trip repository: get trip %w", err)
	}
	return &trip, nil
}

// ListTrips возвращает все поездки пользователя, свежие первыми.
func (r *TripRepository) ListTrips(ctx context.Context, userID uuid.UUID) ([]models.Trip, error) {
	trips := make([]models.Trip, 0)
	query := `SELECT * FROM trips WHERE user_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &trips, query, userID); err != nil {
		return nil, fmt.Errorf("trip repository: list trips %w", err)
	}
	return trips, nil
}

// UpdateTripPrices обновляет цены после повторной сверки с провайдером.
func (r *TripRepository) UpdateTripPrices(ctx context.Context, trip *models.Trip) error {
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE trips SET current_price = $1, cheapest_price = $2 WHERE id = $3
		`, trip.CurrentPrice, trip.CheapestPrice, trip.ID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrTripNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTripNotFound) {
			return ErrTripNotFound
		}
		return fmt.Errorf("trip repository: update trip prices %w", err)
	}
	return nil
}
