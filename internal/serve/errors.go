package serve

import (
	"context"
	"encoding/json"
	"errors"
	domainerr "geoblog/internal/domain/errors"
	"net/http"
)

type APIError struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Fields    []domainerr.FieldError `json:"fields,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// toHTTP maps the domain taxonomy onto a status, a stable code and a safe
// message.
func toHTTP(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"
	case errors.Is(err, domainerr.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized", "unauthorized"
	case errors.Is(err, domainerr.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, domainerr.ErrConflict):
		return http.StatusConflict, "already_exists", "already exists"
	case errors.Is(err, domainerr.ErrInvalid):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "request timed out"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}

// writeError writes the JSON error envelope. detail exposes the error text
// and is meant for admins only.
func writeError(w http.ResponseWriter, r *http.Request, err error, detail bool) {
	status, code, msg := toHTTP(err)
	resp := ErrorResponse{Error: APIError{Code: code, Message: msg}}

	var ve domainerr.ValidationError
	if errors.As(err, &ve) {
		resp.Error.Fields = ve.Items
	}
	if detail && err != nil {
		resp.Error.Message = err.Error()
	}
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict rejects unknown fields and trailing data.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil {
		return badRequest("body", err.Error())
	}
	if dec.More() {
		return badRequest("body", "unexpected data after JSON object")
	}
	return nil
}

func badRequest(field, msg string) error {
	var ve domainerr.ValidationError
	ve.Add(field, msg)
	return ve
}
