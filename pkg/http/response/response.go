package response

import (
	"encoding/json"
	"net/http"

	"github.com/Next-Gen-Coders/limitless-server/pkg/errors"
)

// ErrorResponse is the JSON body returned for any failed request.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HandlerFunc is an http.HandlerFunc that may return an error. Errors are
// translated to JSON error responses by Middleware.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Middleware adapts an error-returning handler to http.HandlerFunc, mapping
// typed application errors to HTTP status codes.
func Middleware(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		WriteError(w, err)
	}
}

// WriteError renders err as a JSON error response with the appropriate status.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := ErrorResponse{Error: err.Error(), Code: string(errors.InternalError)}

	if appErr := errors.AsAppError(err); appErr != nil {
		body.Error = appErr.Message
		body.Code = string(appErr.Type)
		body.Details = appErr.Details
		switch appErr.Type {
		case errors.ValidationError:
			status = http.StatusBadRequest
		case errors.NotFoundError:
			status = http.StatusNotFound
		case errors.UnauthorizedError:
			status = http.StatusUnauthorized
		case errors.ForbiddenError:
			status = http.StatusForbidden
		case errors.ConflictError:
			status = http.StatusConflict
		default:
			status = http.StatusInternalServerError
		}
	}

	WriteJSON(w, status, body)
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
