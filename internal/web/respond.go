package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/justestif/go-release-radar/internal/logging"
	"github.com/justestif/go-release-radar/internal/ranking"
)

// Error codes returned in APIError.Code.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeConfiguration   = "CONFIGURATION_ERROR"
	CodeUpstreamAuth    = "UPSTREAM_AUTH_ERROR"
	CodeUpstream        = "UPSTREAM_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeUnavailable     = "UNAVAILABLE"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternal        = "INTERNAL_ERROR"
	CodeDatabase        = "DATABASE_ERROR"
	statusOK            = "success"
	statusError         = "error"
	contentTypeJSON     = "application/json"
	correlationIDHeader = "X-Correlation-ID"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata describes the response.
type Metadata struct {
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	DurationMS    int64     `json:"duration_ms,omitempty"`
}

// APIError is a machine-readable error.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, resp *APIResponse) {
	resp.Metadata.Timestamp = time.Now().UTC()
	resp.Metadata.CorrelationID = logging.CorrelationID(r.Context())

	data, err := json.Marshal(resp)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to write JSON response")
	}
}

func respondData(w http.ResponseWriter, r *http.Request, data any, started time.Time) {
	resp := &APIResponse{Status: statusOK, Data: data}
	if !started.IsZero() {
		resp.Metadata.DurationMS = time.Since(started).Milliseconds()
	}
	respondJSON(w, r, http.StatusOK, resp)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, apiErr *APIError) {
	respondJSON(w, r, status, &APIResponse{Status: statusError, Error: apiErr})
}

// respondRankError maps a ranking failure to a status and code. The
// underlying cause is logged, not returned to the client.
func respondRankError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classify(err)
	zerolog.Ctx(r.Context()).Error().Err(err).Str("code", code).Int("status", status).Msg("ranking request failed")
	respondError(w, r, status, &APIError{Code: code, Message: message})
}

func classify(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, ranking.ErrInvalidRequest):
		return http.StatusBadRequest, CodeValidation, "invalid request"
	case errors.Is(err, ranking.ErrConfiguration):
		return http.StatusInternalServerError, CodeConfiguration, "catalog credentials are not configured"
	case errors.Is(err, ranking.ErrUpstreamAuth):
		return http.StatusBadGateway, CodeUpstreamAuth, "could not authenticate with the music catalog"
	case errors.Is(err, ranking.ErrUpstreamRequest):
		return http.StatusBadGateway, CodeUpstream, "the music catalog request failed"
	default:
		return http.StatusInternalServerError, CodeInternal, "internal error"
	}
}
