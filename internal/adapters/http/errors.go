package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"onboardhub/internal/domain"
)

type httpError struct {
	code int
	msg  string
}

func (e *httpError) Error() string { return e.msg }

type errorBody struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func statusFor(err error) int {
	var he *httpError
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &he):
		return he.code
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrLocked),
		errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	body := errorBody{Error: err.Error(), RequestID: middleware.GetReqID(r.Context())}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		body.Error = ve.Message
		body.Field = ve.Field
	}
	if code >= http.StatusInternalServerError {
		loggerFrom(r).WithError(err).WithField("path", r.URL.Path).Error("request failed")
		body.Error = http.StatusText(code)
	}
	writeJSON(w, code, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type loggerKey struct{}

func loggerFrom(r *http.Request) logrus.FieldLogger {
	if l, ok := r.Context().Value(loggerKey{}).(logrus.FieldLogger); ok {
		return l
	}
	return logrus.StandardLogger()
}
