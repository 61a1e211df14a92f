package hermesapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lunagic/hermes/hermes"
	"github.com/lunagic/hermes/hermesservices/media"
	"github.com/lunagic/poseidon/poseidon"
)

type ValidationError struct {
	Field  string
	Reason string
}

func (err ValidationError) Error() string {
	return fmt.Sprintf("%s %s", err.Field, err.Reason)
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorHandler answers media failures with a status code. Storage details are
// logged and never sent to the client.
func ErrorHandler(logger *slog.Logger) hermes.ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(w http.ResponseWriter, r *http.Request, err error) {
		var validationError ValidationError

		switch {
		case errors.As(err, &validationError):
			poseidon.RespondJSON(w, http.StatusBadRequest, ErrorResponse{Error: validationError.Error()})
		case errors.Is(err, hermes.ErrInvalidRequestBody):
			poseidon.RespondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		case errors.Is(err, media.ErrInvalidMediaType):
			poseidon.RespondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid media type"})
		case errors.Is(err, media.ErrInvalidKey):
			poseidon.RespondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid key"})
		case errors.Is(err, media.ErrNotFound):
			poseidon.RespondJSON(w, http.StatusNotFound, ErrorResponse{Error: "object not found"})
		case errors.Is(err, media.ErrStorageUnavailable):
			logger.ErrorContext(r.Context(), "hermesapi: storage unavailable", "path", r.URL.String(), "error", err)
			poseidon.RespondJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "storage unavailable"})
		default:
			logger.ErrorContext(r.Context(), "hermesapi: unexpected error", "path", r.URL.String(), "error", err)
			poseidon.RespondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "something went wrong"})
		}
	}
}
