package response

import (
	"encoding/json"
	"net/http"

	"clinic-scheduling/pkg/apperror"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// ErrorBody is the machine-readable part of a failed response.
type ErrorBody struct {
	Kind    apperror.Kind     `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	JSON(w, statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Error(w http.ResponseWriter, statusCode int, kind apperror.Kind, message string) {
	JSON(w, statusCode, Response{
		Success: false,
		Message: message,
		Error:   ErrorBody{Kind: kind, Message: message},
	})
}

// AppError writes err with the status code of its kind. Internal causes are
// never exposed.
func AppError(w http.ResponseWriter, err error) {
	kind := apperror.KindOf(err)
	Error(w, StatusCode(kind), kind, apperror.MessageOf(err))
}

// StatusCode maps an error kind to its HTTP status.
func StatusCode(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindSlotUnavailable, apperror.KindInvalidTransition, apperror.KindImmutable:
		return http.StatusConflict
	case apperror.KindCancellationWindowExpired:
		return http.StatusUnprocessableEntity
	case apperror.KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func ValidationError(w http.ResponseWriter, fields map[string]string) {
	JSON(w, http.StatusBadRequest, Response{
		Success: false,
		Message: "Validation failed",
		Error: ErrorBody{
			Kind:    apperror.KindInvalidArgument,
			Message: "Validation failed",
			Fields:  fields,
		},
	})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, apperror.KindInvalidArgument, message)
}

// Unauthorized always writes the same body so callers cannot tell which
// check failed.
func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, apperror.KindUnauthorized, "Unauthorized")
}

func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	Error(w, http.StatusNotFound, apperror.KindNotFound, message)
}

func TooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	JSON(w, http.StatusTooManyRequests, Response{
		Success: false,
		Message: "Too many requests",
		Error:   ErrorBody{Kind: "RATE_LIMITED", Message: "Too many requests"},
	})
}

func InternalServerError(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Internal server error"
	}
	Error(w, http.StatusInternalServerError, apperror.KindInternal, message)
}
