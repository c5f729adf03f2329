package httpx

import (
	"encoding/json"
	"net/http"
)

// Error codes carried in JSON error bodies so clients can branch without parsing messages.
const (
	CodeBadRequest        = "bad_request"
	CodeNotFound          = "not_found"
	CodeSlotUnavailable   = "slot_unavailable"
	CodeInvalidTransition = "invalid_state_transition"
	CodeIdempotencyReused = "idempotency_key_reused"
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
	CodeInternal          = "internal_error"
)

type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func WriteFieldErrors(w http.ResponseWriter, fields map[string]string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:    CodeBadRequest,
		Message: "validation failed",
		Fields:  fields,
	})
}
