// Package httpapi exposes the order desk over a small JSON API.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"butcherdesk/backend/internal/domain"
	"butcherdesk/backend/internal/fetch"
	"butcherdesk/backend/internal/orders"
)

// CatalogNotifier signals downstream consumers that a butcher's catalog
// changed; delivery runs through the bounded-retry notify queue.
type CatalogNotifier interface {
	CatalogChanged(butcherID string)
}

type API struct {
	service *orders.Service
	auth    *AuthManager
	catalog CatalogNotifier
	log     zerolog.Logger
}

func New(service *orders.Service, auth *AuthManager, catalog CatalogNotifier, log zerolog.Logger) *API {
	return &API{service: service, auth: auth, catalog: catalog, log: log}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /api/login", a.handleLogin)
	mux.Handle("GET /api/orders", a.requireAuth(a.handleListOrders))
	mux.Handle("POST /api/orders", a.requireAuth(a.handleIntake))
	mux.Handle("GET /api/orders/{no}", a.requireAuth(a.handleGetOrder))
	mux.Handle("POST /api/orders/{no}/accept", a.requireAuth(a.handleAccept))
	mux.Handle("POST /api/orders/{no}/complete", a.requireAuth(a.handleComplete))
	mux.Handle("POST /api/orders/{no}/reject", a.requireAuth(a.handleReject))
	mux.Handle("POST /api/catalog/changed", a.requireAuth(a.handleCatalogChanged))
	return mux
}

type butcherHandler func(w http.ResponseWriter, r *http.Request, butcher domain.Butcher)

func (a *API) requireAuth(next butcherHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		butcher, err := a.auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next(w, r, butcher)
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := a.auth.Login(req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request, butcher domain.Butcher) {
	list, err := a.service.List(r.Context(), butcher)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}

func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request, butcher domain.Butcher) {
	orderNo, ok := pathOrderNo(w, r)
	if !ok {
		return
	}
	order, err := a.service.Get(r.Context(), butcher, orderNo)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type intakeRequest struct {
	Items []domain.OrderItem `json:"items"`
}

func (a *API) handleIntake(w http.ResponseWriter, r *http.Request, butcher domain.Butcher) {
	var req intakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	order, err := a.service.Intake(r.Context(), butcher, req.Items)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

type acceptRequest struct {
	Decisions []orders.ItemDecision `json:"decisions"`
}

func (a *API) handleAccept(w http.ResponseWriter, r *http.Request, butcher domain.Butcher) {
	orderNo, ok := pathOrderNo(w, r)
	if !ok {
		return
	}
	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	order, err := a.service.Accept(r.Context(), butcher, orderNo, req.Decisions)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type completeRequest struct {
	Amounts map[string]string `json:"amounts"`
}

func (a *API) handleComplete(w http.ResponseWriter, r *http.Request, butcher domain.Butcher) {
	orderNo, ok := pathOrderNo(w, r)
	if !ok {
		return
	}
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	order, err := a.service.Complete(r.Context(), butcher, orderNo, req.Amounts)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (a *API) handleReject(w http.ResponseWriter, r *http.Request, butcher domain.Butcher) {
	orderNo, ok := pathOrderNo(w, r)
	if !ok {
		return
	}
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	order, err := a.service.Reject(r.Context(), butcher, orderNo, req.Reason)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (a *API) handleCatalogChanged(w http.ResponseWriter, _ *http.Request, butcher domain.Butcher) {
	if a.catalog != nil {
		a.catalog.CatalogChanged(butcher.ID)
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func pathOrderNo(w http.ResponseWriter, r *http.Request) (int, bool) {
	orderNo, err := strconv.Atoi(r.PathValue("no"))
	if err != nil || orderNo < 1 {
		writeError(w, http.StatusBadRequest, "invalid order number")
		return 0, false
	}
	return orderNo, true
}

func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	var outOfRange *domain.OutOfRangeError
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &outOfRange),
		errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrEmptyReason),
		errors.Is(err, domain.ErrMissingAmount),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, fetch.ErrDegraded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		a.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
