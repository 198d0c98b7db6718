package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/baechuer/admin-console/internal/domain"
)

const maxBodyBytes = 1 << 20

// DecodeJSON reads exactly one JSON value from the request body into dst.
// Unknown fields are ignored. Empty, malformed or multi-value bodies are
// invalid_json; bodies over maxBodyBytes are rejected with 413.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}

	// {}{} and {} x are both rejected
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("multiple JSON values")
		}
		return decodeError(err)
	}
	return nil
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		e := domain.Wrap(domain.KindValidation, "body_too_large", "Request body too large", err)
		e.Status = http.StatusRequestEntityTooLarge
		return e
	}
	return domain.ErrInvalidJSON(err)
}
