package server

import (
	"encoding/json"
	"io"
	"net/http"

	apperrors "github.com/jrsteele09/go-collab-server/internal/errors"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

const (
	MsgInvalidBody   = "Invalid request body"
	MsgRouteNotFound = "Route not found"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	StatusCode int               `json:"statusCode"`
	Error      string            `json:"error"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// MessageResponse is returned by actions with nothing else to report
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

// writeError renders err using its classification. Unclassified errors become a 500 whose
// body never carries the underlying error text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.Error
	if !apperrors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}

	status := appErr.Kind.Status()
	if appErr.Kind == apperrors.KindInternal {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}

	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      appErr.Kind.String(),
		Message:    appErr.Message,
		Fields:     appErr.Fields,
	})
}

// decodeJSON reads a JSON request body into dst
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperrors.Validation(MsgInvalidBody, nil)
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperrors.Validation(MsgInvalidBody, nil).WithCause(err)
	}
	return nil
}

// NotFoundHandler answers requests no route matched. A bare OPTIONS request gets 204 so
// preflights without an Origin header still succeed.
func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeError(w, r, apperrors.NotFound(MsgRouteNotFound))
	}
}
