// Package web provides JSON response helpers shared by all handlers.
package web

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"borrowdesk/internal/apperr"
)

// Envelope is the response wrapper every endpoint uses.
type Envelope map[string]any

// OK writes a success envelope with the given payload fields.
func OK(w http.ResponseWriter, status int, payload Envelope) {
	body := Envelope{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	write(w, status, body)
}

// Fail maps a taxonomy error to its HTTP status and writes a failure
// envelope. Internal causes are logged, never serialized.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	message := apperr.MessageOf(err)
	if kind == apperr.KindInternal {
		logrus.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("request failed")
		message = "Internal server error"
	}
	write(w, statusFor(kind), Envelope{
		"success": false,
		"message": message,
	})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
