package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ovolkov/bankcards-backend/internal/auth"
	"github.com/ovolkov/bankcards-backend/internal/domain"
)

// errorResponse is the JSON body for all failures
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps core error kinds to transport status codes. The
// core itself never sees HTTP.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrStatusConflict), errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInsufficientBalance):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		// do not leak internals
		msg = "internal server error"
	}

	writeJSON(w, status, errorResponse{Error: msg})
}
