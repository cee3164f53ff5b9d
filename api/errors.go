package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xaviergregor/gestion-clients/authsvc"
	"github.com/xaviergregor/gestion-clients/blob"
	"github.com/xaviergregor/gestion-clients/store"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// mapError converts domain error kinds to HTTP statuses. Unauthorized
// variants keep their generic messages; everything unexpected collapses
// to a 500 without leaking internals.
func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authsvc.ErrValidation),
		errors.Is(err, blob.ErrUnsafeName):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, authsvc.ErrInvalidCredentials),
		errors.Is(err, authsvc.ErrMissingToken),
		errors.Is(err, authsvc.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, store.ErrUserExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads and decodes a JSON request body with a size cap.
// On failure it writes a 400 and returns ok=false.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, maxSize int64) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}
