package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/flytster-backend/internal/dto"
	"github.com/ignatzorin/flytster-backend/internal/http/handlers/common"
	"github.com/ignatzorin/flytster-backend/internal/pkg/apperror"
	"github.com/ignatzorin/flytster-backend/internal/service"
)

// TripHandler предоставляет HTTP слой поиска, поездок и пассажиров.
type TripHandler struct {
	trips *service.TripService
}

// NewTripHandler создаёт хэндлер.
func NewTripHandler(trips *service.TripService) *TripHandler {
	return &TripHandler{trips: trips}
}

// Search обрабатывает POST /api/v1/trips/search.
func (h *TripHandler) Search(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req dto.TripSearchRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	search, err := h.trips.Search(c.Request.Context(), user, service.SearchInput{
		RoundTrip:     req.RoundTrip,
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		Cabin:         req.Cabin,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusCreated, dto.NewTripSearchResponse(search))
}

// ListSearches обрабатывает GET /api/v1/trips/search.
func (h *TripHandler) ListSearches(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	searches, err := h.trips.ListSearches(c.Request.Context(), user)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	resp := make([]dto.TripSearchResponse, 0, len(searches))
	for i := range searches {
		resp = append(resp, dto.NewTripSearchResponse(&searches[i]))
	}
	common.RespondJSON(c, http.StatusOK, resp)
}

// Book обрабатывает POST /api/v1/trips.
func (h *TripHandler) Book(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req dto.BookTripRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	searchID, err := uuid.Parse(req.TripSearchID)
	if err != nil {
		common.RespondError(c, apperror.New(apperror.ErrCodeValidation, "trip_search_id должен быть валидным UUID"))
		return
	}

	trip, err := h.trips.Book(c.Request.Context(), user, searchID)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusCreated, dto.NewTripResponse(trip))
}

// List обрабатывает GET /api/v1/trips.
func (h *TripHandler) List(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	trips, err := h.trips.ListTrips(c.Request.Context(), user)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	resp := make([]dto.TripResponse, 0, len(trips))
	for i := range trips {
		resp = append(resp, dto.NewTripResponse(&trips[i]))
	}
	common.RespondJSON(c, http.StatusOK, resp)
}

// Get обрабатывает GET /api/v1/trips/:id. Цены обновляются у провайдера
// при каждом чтении.
func (h *TripHandler) Get(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	tripID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, err)
		return
	}

	trip, err := h.trips.GetTrip(c.Request.Context(), user, tripID)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, dto.NewTripResponse(trip))
}

// AddPassenger обрабатывает POST /api/v1/trips/:id/passengers.
func (h *TripHandler) AddPassenger(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	tripID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req dto.PassengerRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	passenger, err := h.trips.AddPassenger(c.Request.Context(), user, tripID, service.PassengerInput{
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		Gender:     req.Gender,
		Birthdate:  req.Birthdate,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusCreated, dto.NewPassengerResponse(passenger))
}

// ListPassengers обрабатывает GET /api/v1/trips/:id/passengers.
func (h *TripHandler) ListPassengers(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	tripID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, err)
		return
	}

	passengers, err := h.trips.ListPassengers(c.Request.Context(), user, tripID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	resp := make([]dto.PassengerResponse, 0, len(passengers))
	for i := range passengers {
		resp = append(resp, dto.NewPassengerResponse(&passengers[i]))
	}
	common.RespondJSON(c, http.StatusOK, resp)
}

// UpdatePassenger обрабатывает PUT /api/v1/passengers/:id.
func (h *TripHandler) UpdatePassenger(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	passengerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req dto.PassengerRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	passenger, err := h.trips.UpdatePassenger(c.Request.Context(), user, passengerID, service.PassengerInput{
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		Gender:     req.Gender,
		Birthdate:  req.Birthdate,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, dto.NewPassengerResponse(passenger))
}

// DeletePassenger обрабатывает DELETE /api/v1/passengers/:id.
func (h *TripHandler) DeletePassenger(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	passengerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, err)
		return
	}

	if err := h.trips.DeletePassenger(c.Request.Context(), user, passengerID); err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondNoContent(c)
}
