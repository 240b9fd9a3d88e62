// Package response writes the JSON envelope every API endpoint returns:
//
//	{"data": ..., "error": {"code", "message", "details"}, "meta": {"requestId", "timestamp", "total"}}
//
// Lists may carry data and an error together when the items are the last
// successful read.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// TimestampFormat is the UTC millisecond layout of Meta.Timestamp.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Meta holds metadata for every API response. Total is set on lists only.
type Meta struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
	Total     *int   `json:"total,omitempty"`
}

// Error represents a structured API error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Envelope is the standard API response wrapper.
type Envelope struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
	Meta  Meta   `json:"meta"`
}

// NewMeta stamps the current time. An empty requestID gets a fresh UUID.
func NewMeta(requestID string) Meta {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return Meta{
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(TimestampFormat),
	}
}

// JSON writes env with the given status. Responses are per caller and never
// cached; HTML in rendered fields is left unescaped.
func JSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Success writes data.
func Success(w http.ResponseWriter, status int, data any, requestID string) {
	JSON(w, status, Envelope{Data: data, Meta: NewMeta(requestID)})
}

// SuccessList writes a list and its length.
func SuccessList(w http.ResponseWriter, status int, data any, total int, requestID string) {
	JSON(w, status, listEnvelope(data, total, nil, requestID))
}

// StaleList writes the previous items together with the error that
// prevented a fresh read.
func StaleList(w http.ResponseWriter, status int, data any, total int, code, message, requestID string) {
	JSON(w, status, listEnvelope(data, total, &Error{Code: code, Message: message}, requestID))
}

func listEnvelope(data any, total int, apiErr *Error, requestID string) Envelope {
	meta := NewMeta(requestID)
	meta.Total = &total
	return Envelope{Data: data, Error: apiErr, Meta: meta}
}

// NoContent writes a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Err writes an error without data.
func Err(w http.ResponseWriter, status int, code, message, requestID string) {
	ErrWithDetails(w, status, code, message, nil, requestID)
}

// ErrWithDetails writes an error with details, such as field errors.
func ErrWithDetails(w http.ResponseWriter, status int, code, message string, details any, requestID string) {
	JSON(w, status, Envelope{
		Error: &Error{Code: code, Message: message, Details: details},
		Meta:  NewMeta(requestID),
	})
}
