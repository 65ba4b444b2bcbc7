package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/AngelCh415/paidmedia-mmm/internal/models"
	"github.com/AngelCh415/paidmedia-mmm/internal/recommend"
)

const maxBody = 1 << 20

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

var errBadRequest = errors.New("bad request")

// statusFor maps domain errors onto HTTP codes.
func statusFor(err error) int {
	var ve validator.ValidationErrors
	switch {
	case errors.Is(err, recommend.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, recommend.ErrNotPending):
		return http.StatusConflict
	case errors.Is(err, recommend.ErrInvalidSpend), errors.Is(err, errBadRequest), errors.As(err, &ve):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// normalizer is implemented by request bodies that clean their fields
// before validation.
type normalizer interface {
	normalize()
}

// decode reads a JSON body into v and runs the struct validations.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if n, ok := v.(normalizer); ok {
		n.normalize()
	}
	return models.Validate(v)
}
