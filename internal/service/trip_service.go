package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/flytster-backend/internal/logger"
	"github.com/ignatzorin/flytster-backend/internal/models"
	"github.com/ignatzorin/flytster-backend/internal/pkg/apperror"
	"github.com/ignatzorin/flytster-backend/internal/pricing"
	"github.com/ignatzorin/flytster-backend/internal/repository"
	"github.com/ignatzorin/flytster-backend/internal/validation"
)

// TripRepository описывает зависимости TripService от слоя хранилища.
type TripRepository interface {
	CreateSearch(ctx context.Context, search *models.TripSearch) error
	GetSearch(ctx context.Context, id, userID uuid.UUID) (*models.TripSearch, error)
	ListSearches(ctx context.Context, userID uuid.UUID) ([]models.TripSearch, error)
	CreateTrip(ctx context.Context, trip *models.Trip) error
	GetTrip(ctx context.Context, id, userID uuid.UUID) (*models.Trip, error)
	ListTrips(ctx context.Context, userID uuid.UUID) ([]models.Trip, error)
	UpdateTripPrices(ctx context.Context, trip *models.Trip) error
}

// PassengerRepository описывает хранилище пассажиров.
type PassengerRepository interface {
	Create(ctx context.Context, passenger *models.Passenger) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Passenger, error)
	ListByTrip(ctx context.Context, tripID, userID uuid.UUID) ([]models.Passenger, error)
	Update(ctx context.Context, passenger *models.Passenger) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// TripService отвечает за поиск перелётов, оформление поездок и
// пассажиров.
type TripService struct {
	trips      TripRepository
	passengers PassengerRepository
	provider   pricing.Provider

	// now подменяется в тестах.
	now func() time.Time
}

// SearchInput — параметры поиска перелёта.
type SearchInput struct {
	RoundTrip     bool
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    *string
	Cabin         string
}

// PassengerInput — данные пассажира.
type PassengerInput struct {
	FirstName  string
	MiddleName *string
	LastName   string
	Gender     string
	Birthdate  string
}

var allowedCabins = []string{
	models.CabinCoach,
	models.CabinPremiumCoach,
	models.CabinBusiness,
	models.CabinFirst,
}

// NewTripService создаёт сервис поездок.
func NewTripService(trips TripRepository, passengers PassengerRepository, provider pricing.Provider) *TripService {
	return &TripService{
		trips:      trips,
		passengers: passengers,
		provider:   provider,
		now:        time.Now,
	}
}

// Search запрашивает котировку у провайдера и сохраняет её. Бронировать
// можно только сохранённый поиск и только до истечения его цены.
func (s *TripService) Search(ctx context.Context, user *models.User, in SearchInput) (*models.TripSearch, error) {
	if in.Origin == "" || in.Destination == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "пункты отправления и назначения обязательны")
	}
	if err := validation.ValidateDate("дата вылета", in.DepartureDate); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if in.RoundTrip {
		if in.ReturnDate == nil {
			return nil, apperror.New(apperror.ErrCodeValidation, "для перелёта туда-обратно нужна дата возврата")
		}
		if err := validation.ValidateDate("дата возврата", *in.ReturnDate); err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
		if *in.ReturnDate < in.DepartureDate {
			return nil, apperror.New(apperror.ErrCodeValidation, "дата возврата не может быть раньше даты вылета")
		}
	}
	if err := validation.ValidateCabin(in.Cabin, allowedCabins); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	quote, err := s.provider.Search(ctx, pricing.SearchRequest{
		RoundTrip:     in.RoundTrip,
		Origin:        in.Origin,
		Destination:   in.Destination,
		DepartureDate: in.DepartureDate,
		ReturnDate:    in.ReturnDate,
		Cabin:         in.Cabin,
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "прайс-провайдер недоступен")
	}

	search := &models.TripSearch{
		UserID:        user.ID,
		RoundTrip:     in.RoundTrip,
		Origin:        in.Origin,
		Destination:   in.Destination,
		DepartureDate: in.DepartureDate,
		ReturnDate:    in.ReturnDate,
		Cabin:         in.Cabin,
		Carrier:       quote.Carrier,
		Price:         quote.Price,
		Expiration:    quote.Expiration,
	}
	if err := s.trips.CreateSearch(ctx, search); err != nil {
		return nil, err
	}
	return search, nil
}

// ListSearches возвращает сохранённые поиски пользователя.
func (s *TripService) ListSearches(ctx context.Context, user *models.User) ([]models.TripSearch, error) {
	return s.trips.ListSearches(ctx, user.ID)
}

// Book оформляет поездку по сохранённому поиску. Просроченная цена
// требует нового поиска; повторное бронирование того же поиска
// отклоняется уникальным индексом.
func (s *TripService) Book(ctx context.Context, user *models.User, searchID uuid.UUID) (*models.Trip, error) {
	search, err := s.trips.GetSearch(ctx, searchID, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrTripSearchNotFound) {
			return nil, apperror.ErrSearchNotFound
		}
		return nil, err
	}

	if s.now().After(search.Expiration) {
		return nil, apperror.ErrSearchExpired
	}

	trip := &models.Trip{
		UserID:        user.ID,
		TripSearchID:  search.ID,
		CurrentPrice:  search.Price,
		CheapestPrice: search.Price,
	}
	if err := s.trips.CreateTrip(ctx, trip); err != nil {
		if errors.Is(err, repository.ErrSearchAlreadyBooked) {
			return nil, apperror.ErrSearchBooked
		}
		return nil, err
	}
	return trip, nil
}

// GetTrip возвращает поездку, обновив цены у провайдера. Сбой провайдера
// не мешает отдать поездку с последними известными ценами.
func (s *TripService) GetTrip(ctx context.Context, user *models.User, tripID uuid.UUID) (*models.Trip, error) {
	trip, err := s.trips.GetTrip(ctx, tripID, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return nil, apperror.ErrTripNotFound
		}
		return nil, err
	}

	search, err := s.trips.GetSearch(ctx, trip.TripSearchID, user.ID)
	if err != nil {
		return nil, err
	}

	current, err := s.provider.CurrentPrice(ctx, search.Carrier, search.Origin, search.Destination, search.DepartureDate)
	if err != nil {
		logger.Component("trips").WithError(err).Warn("Не удалось обновить цену поездки")
		return trip, nil
	}

	if current != trip.CurrentPrice {
		trip.CurrentPrice = current
		if lessPrice(current, trip.CheapestPrice) {
			trip.CheapestPrice = current
		}
		if err := s.trips.UpdateTripPrices(ctx, trip); err != nil {
			return nil, err
		}
	}
	return trip, nil
}

// ListTrips возвращает поездки пользователя без обновления цен.
func (s *TripService) ListTrips(ctx context.Context, user *models.User) ([]models.Trip, error) {
	return s.trips.ListTrips(ctx, user.ID)
}

// lessPrice сравнивает десятичные цены в строках. Нечисловые значения
// считаются не меньшими: цену тогда просто не трогаем.
func lessPrice(a, b string) bool {
	av, errA := strconv.ParseFloat(a, 64)
	bv, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return false
	}
	return av < bv
}

func (s *TripService) validatePassenger(in PassengerInput) error {
	if err := validation.ValidateName("имя", in.FirstName); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateName("фамилия", in.LastName); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateGender(in.Gender); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateDate("дата рождения", in.Birthdate); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	return nil
}

// AddPassenger добавляет пассажира к поездке пользователя.
func (s *TripService) AddPassenger(ctx context.Context, user *models.User, tripID uuid.UUID, in PassengerInput) (*models.Passenger, error) {
	if err := s.validatePassenger(in); err != nil {
		return nil, err
	}

	if _, err := s.trips.GetTrip(ctx, tripID, user.ID); err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return nil, apperror.ErrTripNotFound
		}
		return nil, err
	}

	birthdate, _ := time.Parse(validation.DateLayout, in.Birthdate)
	passenger := &models.Passenger{
		UserID:     user.ID,
		TripID:     tripID,
		FirstName:  in.FirstName,
		MiddleName: in.MiddleName,
		LastName:   in.LastName,
		Gender:     in.Gender,
		Birthdate:  birthdate,
	}
	if err := s.passengers.Create(ctx, passenger); err != nil {
		if errors.Is(err, repository.ErrPassengerExists) {
			return nil, apperror.ErrPassengerExists
		}
		return nil, err
	}
	return passenger, nil
}

// ListPassengers возвращает пассажиров поездки пользователя.
func (s *TripService) ListPassengers(ctx context.Context, user *models.User, tripID uuid.UUID) ([]models.Passenger, error) {
	if _, err := s.trips.GetTrip(ctx, tripID, user.ID); err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return nil, apperror.ErrTripNotFound
		}
		return nil, err
	}
	return s.passengers.ListByTrip(ctx, tripID, user.ID)
}

// UpdatePassenger правит данные пассажира.
func (s *TripService) UpdatePassenger(ctx context.Context, user *models.User, passengerID uuid.UUID, in PassengerInput) (*models.Passenger, error) {
	if err := s.validatePassenger(in); err != nil {
		return nil, err
	}

	passenger, err := s.passengers.GetByID(ctx, passengerID, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrPassengerNotFound) {
			return nil, apperror.ErrPassengerMissing
		}
		return nil, err
	}

	birthdate, _ := time.Parse(validation.DateLayout, in.Birthdate)
	passenger.FirstName = in.FirstName
	passenger.MiddleName = in.MiddleName
	passenger.LastName = in.LastName
	passenger.Gender = in.Gender
	passenger.Birthdate = birthdate

	if err := s.passengers.Update(ctx, passenger); err != nil {
		switch {
		case errors.Is(err, repository.ErrPassengerNotFound):
			return nil, apperror.ErrPassengerMissing
		case errors.Is(err, repository.ErrPassengerExists):
			return nil, apperror.ErrPassengerExists
		}
		return nil, err
	}
	return passenger, nil
}

// DeletePassenger убирает пассажира из поездки.
func (s *TripService) DeletePassenger(ctx context.Context, user *models.User, passengerID uuid.UUID) error {
	if err := s.passengers.Delete(ctx, passengerID, user.ID); err != nil {
		if errors.Is(err, repository.ErrPassengerNotFound) {
			return apperror.ErrPassengerMissing
		}
		return err
	}
	return nil
}
