package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"pillarscan/internal/api"
	apperrors "pillarscan/internal/errors"

	"github.com/go-chi/chi/v5"
)

// responseWriter wraps http.ResponseWriter to capture the status code for
// request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// writeJSONResponse writes a JSON body with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, v any) {
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorResponse writes a standardized error envelope.
func writeErrorResponse(w http.ResponseWriter, statusCode int, message, details string) {
	writeJSONResponse(w, statusCode, api.ErrorResponse{
		Error:   message,
		Details: details,
	})
}

// handleServiceError maps a service error onto the HTTP response using the
// status code and message carried by the error.
func handleServiceError(w http.ResponseWriter, err error) {
	statusCode := apperrors.GetStatusCode(err)
	message := apperrors.GetErrorMessage(err)
	if message == "" {
		message = "Internal server error"
	}
	writeErrorResponse(w, statusCode, message, apperrors.GetErrorCode(err))
}

// decodeRequestBody decodes the JSON request body into v. On failure it
// writes the error response itself and returns the error so the handler can
// bail out.
func decodeRequestBody(w http.ResponseWriter, req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid request body", err.Error())
		return err
	}
	return nil
}

// getRequiredURLParam extracts a required URL parameter. A missing parameter
// writes the error response and returns false.
func getRequiredURLParam(w http.ResponseWriter, req *http.Request, name string) (string, bool) {
	param := strings.TrimSpace(chi.URLParam(req, name))
	if param == "" {
		writeErrorResponse(w, http.StatusBadRequest, "invalid "+name, name+" is required")
		return "", false
	}
	return param, true
}
