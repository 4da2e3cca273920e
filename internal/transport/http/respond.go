package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"globetrotter/internal/domain"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code and a {message} body.
// Server errors are logged and their detail is not echoed to the client.
func writeError(w http.ResponseWriter, logger *slog.Logger, op, user string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "op", op, "user", user, "error", err)
		msg = "Server error"
	} else {
		logger.Debug("request rejected", "op", op, "user", user, "status", status, "error", err)
	}
	writeJSON(w, status, messageResponse{Message: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUsernameRequired),
		errors.Is(err, domain.ErrInvalidUsername),
		errors.Is(err, domain.ErrInvalidPassword),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrNoDestinations):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUsernameTaken),
		errors.Is(err, domain.ErrAdminExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("malformed request body")

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(v); err != nil {
		return errBadRequest
	}
	return nil
}
