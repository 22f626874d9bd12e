package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"foodflow/internal/logger"
	"foodflow/internal/models"
)

const maxBodyBytes = 1 << 20

// WriteJSON writes v as the JSON response body
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(v)
}

// WriteOK writes {"status": "ok", ...data}
func WriteOK(w http.ResponseWriter, r *http.Request, log *logger.Logger, statusCode int, data map[string]interface{}) {
	body := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		body[k] = v
	}
	body["status"] = "ok"

	if err := WriteJSON(w, statusCode, body); err != nil {
		log.Error("response_encoding_failed", "Failed to encode response", RequestID(r), err, nil)
	}
}

// WriteErrorMessage writes {"status": "error", "message": ...}
func WriteErrorMessage(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	WriteJSON(w, statusCode, map[string]interface{}{
		"status":     "error",
		"message":    message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": RequestID(r),
	})
}

// StatusCode maps an error onto its HTTP status by error class
func StatusCode(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict), errors.Is(err, models.ErrNoOpenOrder):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError translates err into an error response. Classified errors are
// returned to the client as is; anything else is logged and reported as a
// generic internal error.
func WriteError(w http.ResponseWriter, r *http.Request, log *logger.Logger, action string, err error) {
	code := StatusCode(err)

	var message string
	switch code {
	case http.StatusInternalServerError:
		log.Error(action, "Request failed", RequestID(r), err, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		message = "Internal server error"
	case http.StatusForbidden:
		log.Warn(action, "Permission denied", RequestID(r), map[string]interface{}{
			"path": r.URL.Path,
		})
		message = "You do not have permission to perform this action"
	default:
		if errors.Is(err, models.ErrNoOpenOrder) {
			message = models.ErrNoOpenOrder.Error()
		} else {
			message = err.Error()
		}
		log.Debug(action, message, RequestID(r), nil)
	}

	WriteErrorMessage(w, r, code, message)
}

// DecodeJSON decodes a JSON request body into v, rejecting unknown fields.
// Failures are reported as invalid arguments.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return models.ValidationError{Field: "body", Message: "Content-Type must be application/json"}
		}
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return models.ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}

// IDParam reads a positive integer URL parameter
func IDParam(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, models.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return id, nil
}
