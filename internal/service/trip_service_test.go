package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/flytster-backend/internal/models"
	"github.com/ignatzorin/flytster-backend/internal/pkg/apperror"
	"github.com/ignatzorin/flytster-backend/internal/pricing"
	"github.com/ignatzorin/flytster-backend/internal/repository"
)

type mockTripRepository struct {
	searchesByID map[uuid.UUID]*models.TripSearch
	tripsByID    map[uuid.UUID]*models.Trip
	bookedSearch map[uuid.UUID]bool
	priceUpdates int
}

func newMockTripRepository() *mockTripRepository {
	return &mockTripRepository{
		searchesByID: make(map[uuid.UUID]*models.TripSearch),
		tripsByID:    make(map[uuid.UUID]*models.Trip),
		bookedSearch: make(map[uuid.UUID]bool),
	}
}

func (m *mockTripRepository) CreateSearch(_ context.Context, search *models.TripSearch) error {
	search.ID = uuid.New()
	search.CreatedAt = time.Now()
	m.searchesByID[search.ID] = search
	return nil
}

func (m *mockTripRepository) GetSearch(_ context.Context, id, userID uuid.UUID) (*models.TripSearch, error) {
	search, ok := m.searchesByID[id]
	if !ok || search.UserID != userID {
		return nil, repository.ErrTripSearchNotFound
	}
	return search, nil
}

func (m *mockTripRepository) ListSearches(_ context.Context, userID uuid.UUID) ([]models.TripSearch, error) {
	var searches []models.TripSearch
	for _, search := range m.searchesByID {
		if search.UserID == userID {
			searches = append(searches, *search)
		}
	}
	return searches, nil
}

func (m *mockTripRepository) CreateTrip(_ context.Context, trip *models.Trip) error {
	if m.bookedSearch[trip.TripSearchID] {
		return repository.ErrSearchAlreadyBooked
	}
	trip.ID = uuid.New()
	trip.CreatedAt = time.Now()
	m.tripsByID[trip.ID] = trip
	m.bookedSearch[trip.TripSearchID] = true
	return nil
}

func (m *mockTripRepository) GetTrip(_ context.Context, id, userID uuid.UUID) (*models.Trip, error) {
	trip, ok := m.tripsByID[id]
	if !ok || trip.UserID != userID {
		return nil, repository.ErrTripNotFound
	}
	return trip, nil
}

func (m *mockTripRepository) ListTrips(_ context.Context, userID uuid.UUID) ([]models.Trip, error) {
	var trips []models.Trip
	for _, trip := range m.tripsByID {
		if trip.UserID == userID {
			trips = append(trips, *trip)
		}
	}
	return trips, nil
}

func (m *mockTripRepository) UpdateTripPrices(_ context.Context, trip *models.Trip) error {
	if _, ok := m.tripsByID[trip.ID]; !ok {
		return repository.ErrTripNotFound
	}
	m.tripsByID[trip.ID] = trip
	m.priceUpdates++
	return nil
}

type mockPassengerRepository struct {
	byID map[uuid.UUID]*models.Passenger
}

func newMockPassengerRepository() *mockPassengerRepository {
	return &mockPassengerRepository{byID: make(map[uuid.UUID]*models.Passenger)}
}

func (m *mockPassengerRepository) Create(_ context.Context, passenger *models.Passenger) error {
	passenger.ID = uuid.New()
	m.byID[passenger.ID] = passenger
	return nil
}

func (m *mockPassengerRepository) GetByID(_ context.Context, id, userID uuid.UUID) (*models.Passenger, error) {
	passenger, ok := m.byID[id]
	if !ok || passenger.UserID != userID {
		return nil, repository.ErrPassengerNotFound
	}
	return passenger, nil
}

func (m *mockPassengerRepository) ListByTrip(_ context.Context, tripID, userID uuid.UUID) ([]models.Passenger, error) {
	var passengers []models.Passenger
	for _, p := range m.byID {
		if p.TripID == tripID && p.UserID == userID {
			passengers = append(passengers, *p)
		}
	}
	return passengers, nil
}

func (m *mockPassengerRepository) Update(_ context.Context, passenger *models.Passenger) error {
	if _, ok := m.byID[passenger.ID]; !ok {
		return repository.ErrPassengerNotFound
	}
	m.byID[passenger.ID] = passenger
	return nil
}

func (m *mockPassengerRepository) Delete(_ context.Context, id, userID uuid.UUID) error {
	passenger, ok := m.byID[id]
	if !ok || passenger.UserID != userID {
		return repository.ErrPassengerNotFound
	}
	delete(m.byID, id)
	return nil
}

// mockPricingProvider отвечает фиксированной котировкой и ценой.
type mockPricingProvider struct {
	quote        pricing.Quote
	currentPrice string
	priceErr     error
}

func (m *mockPricingProvider) Search(_ context.Context, _ pricing.SearchRequest) (*pricing.Quote, error) {
	quote := m.quote
	return &quote, nil
}

func (m *mockPricingProvider) CurrentPrice(_ context.Context, _, _, _, _ string) (string, error) {
	if m.priceErr != nil {
		return "", m.priceErr
	}
	return m.currentPrice, nil
}

func newTripServiceForTest() (*TripService, *mockTripRepository, *mockPassengerRepository, *mockPricingProvider) {
	tripRepo := newMockTripRepository()
	passengerRepo := newMockPassengerRepository()
	provider := &mockPricingProvider{
		quote: pricing.Quote{
			Carrier:    "DL",
			Price:      "289.40",
			Expiration: time.Now().Add(30 * time.Minute),
		},
		currentPrice: "289.40",
	}
	svc := NewTripService(tripRepo, passengerRepo, provider)
	return svc, tripRepo, passengerRepo, provider
}

func validSearchInput() SearchInput {
	return SearchInput{
		Origin:        "JFK",
		Destination:   "LAX",
		DepartureDate: "2026-10-01",
		Cabin:         models.CabinCoach,
	}
}

func TestTripService_Search(t *testing.T) {
	svc, tripRepo, _, _ := newTripServiceForTest()
	ctx := context.Background()
	user := newTestUser(true)

	search, err := svc.Search(ctx, user, validSearchInput())
	if err != nil {
		t.Fatalf("поиск вернул ошибку: %v", err)
	}
	if search.ID == uuid.Nil {
		t.Fatalf("поиск должен быть сохранён")
	}
	if search.Carrier != "DL" || search.Price != "289.40" {
		t.Fatalf("поиск должен нести котировку провайдера, получили %s %s", search.Carrier, search.Price)
	}
	if _, ok := tripRepo.searchesByID[search.ID]; !ok {
		t.Fatalf("поиск не сохранён в хранилище")
	}

	searches, err := svc.ListSearches(ctx, user)
	if err != nil {
		t.Fatalf("список поисков вернул ошибку: %v", err)
	}
	if len(searches) != 1 {
		t.Fatalf("ожидался один сохранённый поиск, получили %d", len(searches))
	}
}

func TestTripService_Search_Validation(t *testing.T) {
	svc, _, _, _ := newTripServiceForTest()
	ctx := context.Background()
	user := newTestUser(true)

	returnBefore := "2026-09-30"

	cases := []struct {
		name string
		in   SearchInput
	}{
		{"пустой пункт отправления", SearchInput{Destination: "LAX", DepartureDate: "2026-10-01", Cabin: models.CabinCoach}},
		{"кривая дата", SearchInput{Origin: "JFK", Destination: "LAX", DepartureDate: "01.10.2026", Cabin: models.CabinCoach}},
		{"туда-обратно без даты возврата", SearchInput{RoundTrip: true, Origin: "JFK", Destination: "LAX", DepartureDate: "2026-10-01", Cabin: models.CabinCoach}},
		{"возврат раньше вылета", SearchInput{RoundTrip: true, Origin: "JFK", Destination: "LAX", DepartureDate: "2026-10-01", ReturnDate: &returnBefore, Cabin: models.CabinCoach}},
		{"неизвестный класс", SearchInput{Origin: "JFK", Destination: "LAX", DepartureDate: "2026-10-01", Cabin: "ECONOMY"}},
	}

	for _, tc := range cases {
		if _, err := svc.Search(ctx, user, tc.in); !apperror.IsValidation(err) {
			t.Fatalf("%s: ожидалась ошибка валидации, получили %v", tc.name, err)
		}
	}
}

func TestTripService_Book(t *testing.T) {
	svc, _, _, _ := newTripServiceForTest()
	ctx := context.Background()
	user := newTestUser(true)

	search, err := svc.Search(ctx, user, validSearchInput())
	if err != nil {
		t.Fatalf("поиск вернул ошибку: %v", err)
	}

	trip, err := svc.Book(ctx, user, search.ID)
	if err != nil {
		t.Fatalf("бронирование вернуло ошибку: %v", err)
	}
	if trip.CurrentPrice != search.Price || trip.CheapestPrice != search.Price {
		t.Fatalf("цены поездки должны совпадать с ценой поиска")
	}

	// Один поиск бронируется только один раз.
	if _, err := svc.Book(ctx, user, search.ID); !errors.Is(err, apperror.ErrSearchBooked) {
		t.Fatalf("повторное бронирование должно давать конфликт, получили %v", err)
	}

	// Чужой поиск не виден.
	stranger := newTestUser(true)
	stranger.ID = uuid.New()
	if _, err := svc.Book(ctx, stranger, search.ID); !errors.Is(err, apperror.ErrSearchNotFound) {
		t.Fatalf("чужой поиск должен быть не найден, получили %v", err)
	}
}

func TestTripService_Book_ExpiredSearch(t *testing.T) {
	svc, _, _, _ := newTripServiceForTest()
	ctx := context.Background()
	user := newTestUser(true)

	search, err := svc.Search(ctx, user, validSearchInput())
	if err != nil {
		t.Fatalf("поиск вернул ошибку: %v", err)
	}

	svc.now = func() time.Time { return search.Expiration.Add(time.Second) }

	if _, err := svc.Book(ctx, user, search.ID); !errors.Is(err, apperror.ErrSearchExpired) {
		t.Fatalf("просроченный поиск должен требовать нового, получили %v", err)
	}
}

func TestTripService_GetTrip_RefreshesPrices(t *testing.T) {
	svc, tripRepo, _, provider := newTripServiceForTest()
	ctx := context.Background()
	user := newTestUser(true)

	search, _ := svc.Search(ctx, user, validSearchInput())
	trip, err := svc.Book(ctx, user, search.ID)
	if err != nil {
		t.Fatalf("бронирование вернуло ошибку: %v", err)
	}

	// Цена упала: обновляются и текущая, и минимальная.
	provider.currentPrice = "250.00"
	got, err := svc.GetTrip(ctx, user, trip.ID)
	if err != nil {
		t.Fatalf("чтение поездки вернуло ошибку: %v", err)
	}
	if got.CurrentPrice != "250.00" || got.CheapestPrice != "250.00" {
		t.Fatalf("цены не обновились: %s / %s", got.CurrentPrice, got.CheapestPrice)
	}

	// Цена выросла: минимальная остаётся прежней.
	provider.currentPrice = "320.00"
	got, err = svc.GetTrip(ctx, user, trip.ID)
	if err != nil {
		t.Fatalf("чтение поездки вернуло ошибку: %v", err)
	}
	if got.CurrentPrice != "320.00" {
		t.Fatalf("текущая цена не обновилась: %s", got.CurrentPrice)
	}
	if got.CheapestPrice != "250.00" {
		t.Fatalf("минимальная цена не должна расти: %s", got.CheapestPrice)
	}

	if tripRepo.priceUpdates != 2 {
		t.Fatalf("ожидалось два обновления цен, было %d", tripRepo.priceUpdates)
	}
}

func TestTripService_GetTrip_ProviderDown(t *testing.T) {
	svc, _, _, provider := newTripServiceForTest()
	ctx := context.Background()
	user := newTestUser(true)

	search, _ := svc.Search(ctx, user, validSearchInput())
	trip, err := svc.Book(ctx, user, search.ID)
	if err != nil {
		t.Fatalf("бронирование вернуло ошибку: %v", err)
	}

	// Сбой провайдера не мешает отдать поездку с последними ценами.
	provider.priceErr = errors.New("provider unavailable")
	got, err := svc.GetTrip(ctx, user, trip.ID)
	if err != nil {
		t.Fatalf("чтение поездки вернуло ошибку: %v", err)
	}
	if got.CurrentPrice != "289.40" {
		t.Fatalf("при сбое провайдера цена должна остаться прежней: %s", got.CurrentPrice)
	}
}

func TestTripService_Passengers(t *testing.T) {
	svc, _, passengerRepo, _ := newTripServiceForTest()
	ctx := context.Background()
	user := newTestUser(true)

	search, _ := svc.Search(ctx, user, validSearchInput())
	trip, err := svc.Book(ctx, user, search.ID)
	if err != nil {
		t.Fatalf("бронирование вернуло ошибку: %v", err)
	}

	passenger, err := svc.AddPassenger(ctx, user, trip.ID, PassengerInput{
		FirstName: "Дмитрий",
		LastName:  "Аббин",
		Gender:    "M",
		Birthdate: "1990-05-12",
	})
	if err != nil {
		t.Fatalf("добавление пассажира вернуло ошибку: %v", err)
	}
	if passenger.Birthdate.Format("2006-01-02") != "1990-05-12" {
		t.Fatalf("дата рождения разобрана неверно: %v", passenger.Birthdate)
	}

	// Пассажир с кривым полом отклоняется.
	_, err = svc.AddPassenger(ctx, user, trip.ID, PassengerInput{
		FirstName: "Мария",
		LastName:  "Аббина",
		Gender:    "X",
		Birthdate: "1991-01-01",
	})
	if !apperror.IsValidation(err) {
		t.Fatalf("ожидалась ошибка валидации, получили %v", err)
	}

	passengers, err := svc.ListPassengers(ctx, user, trip.ID)
	if err != nil {
		t.Fatalf("список пассажиров вернул ошибку: %v", err)
	}
	if len(passengers) != 1 {
		t.Fatalf("ожидался один пассажир, получили %d", len(passengers))
	}

	updated, err := svc.UpdatePassenger(ctx, user, passenger.ID, PassengerInput{
		FirstName: "Дмитрий",
		LastName:  "Иванов",
		Gender:    "M",
		Birthdate: "1990-05-12",
	})
	if err != nil {
		t.Fatalf("правка пассажира вернула ошибку: %v", err)
	}
	if updated.LastName != "Иванов" {
		t.Fatalf("фамилия не обновилась: %s", updated.LastName)
	}

	if err := svc.DeletePassenger(ctx, user, passenger.ID); err != nil {
		t.Fatalf("удаление пассажира вернуло ошибку: %v", err)
	}
	if len(passengerRepo.byID) != 0 {
		t.Fatalf("пассажир должен быть удалён")
	}

	// Повторное удаление — «не найден».
	if err := svc.DeletePassenger(ctx, user, passenger.ID); !errors.Is(err, apperror.ErrPassengerMissing) {
		t.Fatalf("ожидалось «пассажир не найден», получили %v", err)
	}
}
