package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/leagueflow/pkg/logger"
	"github.com/dmitrymomot/leagueflow/pkg/validator"
)

// Response is the JSON body of every API response.
type Response struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Data: data})
}

// respondError writes err with the status of its class. Internal errors are
// logged and their message is not exposed.
func respondError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	httpErr := classify(err)
	detail := &ErrorDetail{Code: httpErr.Code, Message: err.Error()}

	if ve := validator.ExtractValidationErrors(err); len(ve) > 0 {
		detail.Details = make(map[string][]string, len(ve))
		for _, field := range ve.Fields() {
			detail.Details[field] = ve.Get(field)
		}
	}

	if httpErr.Status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)
		detail.Message = http.StatusText(httpErr.Status)
	}

	writeJSON(w, httpErr.Status, Response{Error: detail})
}
