package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/CLillis357/VigilantIE/pkg/validator"
)

const maxBodyBytes = 1 << 20

// BindJSON decodes and validates a fresh T per request before calling next.
// Unknown fields and trailing data are rejected.
func BindJSON[T any](next func(w http.ResponseWriter, r *http.Request, req T)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req T

		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()

		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}

		if err := validator.ValidateStruct(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		next(w, r, req)
	}
}
