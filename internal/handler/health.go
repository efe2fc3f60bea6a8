package handler

import (
	"errors"
	"net/http"

	"github.com/forgo/storefront/api/internal/database"
	"github.com/forgo/storefront/api/internal/model"
)

// StateReporter exposes the connection state. *database.Manager implements it.
type StateReporter interface {
	State() database.State
	LastError() error
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Success  bool   `json:"success"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// HealthHandler serves liveness and readiness
type HealthHandler struct {
	db StateReporter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db StateReporter) *HealthHandler {
	return &HealthHandler{db: db}
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Server is Running!"})
}

// Healthz handles GET /healthz. It reports state only and never dials.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	state := h.db.State()
	resp := HealthResponse{
		Success:  state == database.Connected,
		Database: state.String(),
	}

	if state == database.Failed {
		switch err := h.db.LastError(); {
		case errors.Is(err, database.ErrConfiguration):
			resp.Error = string(model.CodeConfiguration)
		case err != nil:
			resp.Error = string(model.CodeConnectivity)
		}
	}

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, resp)
}

// NotFound handles requests no route matched
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, model.NewRouteNotFoundError())
}

// MethodNotAllowed handles requests with an unsupported method
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, model.NewMethodNotAllowedError())
}
