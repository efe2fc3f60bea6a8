package handler

import (
	"encoding/json"
	"net/http"

	"github.com/forgo/storefront/api/internal/model"
)

// DataResponse wraps a successful response
type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// MessageResponse is a successful response carrying only a message
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes a successful data response
func WriteData(w http.ResponseWriter, status int, data interface{}) {
	WriteJSON(w, status, DataResponse{Success: true, Data: data})
}

// WriteError writes an error envelope
func WriteError(w http.ResponseWriter, err *model.APIError) {
	WriteJSON(w, err.Status, err)
}

// DecodeJSON decodes a JSON request body into the given struct
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
