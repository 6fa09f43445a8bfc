package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jmarq76/beerstock/internal/core/domain"
	"github.com/jmarq76/beerstock/internal/core/service"
	"github.com/jmarq76/beerstock/internal/port"
)

type HTTPHandler struct {
	beerService     *service.BeerService
	movementService *service.MovementService
	countryService  *service.CountryService
	logger          *zap.Logger
}

type ErrorHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewHTTPHandler(beers *service.BeerService, movements *service.MovementService, countries *service.CountryService, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{
		beerService:     beers,
		movementService: movements,
		countryService:  countries,
		logger:          logger,
	}
}

func (h *HTTPHandler) CreateBeer(w http.ResponseWriter, r *http.Request) {
	var req domain.BeerDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	beer, err := h.beerService.Register(r.Context(), domain.ToModel(req))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, domain.ToDTO(beer))
}

func (h *HTTPHandler) ListBeers(w http.ResponseWriter, r *http.Request) {
	beers, err := h.beerService.ListAll(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domain.ToDTOs(beers))
}

func (h *HTTPHandler) FindBeerByName(w http.ResponseWriter, r *http.Request) {
	beer, err := h.beerService.FindByName(r.Context(), chi.URLParam(r, beerParam))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domain.ToDTO(beer))
}

func (h *HTTPHandler) DeleteBeer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, beerParam)
	if !ok {
		return
	}

	if err := h.beerService.DeleteByID(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) Increment(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.beerService.Increment)
}

func (h *HTTPHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.beerService.Decrement)
}

type adjustFunc func(ctx context.Context, id int64, amount int) (domain.Beer, error)

func (h *HTTPHandler) adjust(w http.ResponseWriter, r *http.Request, op adjustFunc) {
	id, ok := parseID(w, r, beerParam)
	if !ok {
		return
	}

	var req domain.QuantityDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	beer, err := op(r.Context(), id, req.Quantity)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domain.ToDTO(beer))
}

func (h *HTTPHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, beerParam)
	if !ok {
		return
	}

	movements, err := h.movementService.ListByBeer(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, movements)
}

func (h *HTTPHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.countryService.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, countries)
}

func (h *HTTPHandler) FindCountry(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, countryParam)
	if !ok {
		return
	}

	country, err := h.countryService.FindByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, country)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrCountryNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrBelowZero),
		errors.Is(err, service.ErrInvalidBeer),
		errors.Is(err, service.ErrInvalidQuantity):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, port.ErrOptimisticLock):
		status = http.StatusConflict
		message = "concurrent update, retry"
	default:
		h.logger.Error("request failed", zap.Error(err))
	}

	writeError(w, status, message)
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorHTTPResponse{
		Success: false,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
