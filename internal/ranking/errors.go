package ranking

import "errors"

// Sentinel errors. Callers map them to transport status codes.
var (
	// ErrConfiguration is returned when the service lacks catalog credentials.
	ErrConfiguration = errors.New("service is not configured for catalog access")

	// ErrUpstreamAuth is returned when the catalog token exchange fails.
	ErrUpstreamAuth = errors.New("catalog authentication failed")

	// ErrUpstreamRequest is returned when the primary catalog source for a
	// request fails.
	ErrUpstreamRequest = errors.New("catalog request failed")

	// ErrInvalidRequest is returned for malformed ranking requests.
	ErrInvalidRequest = errors.New("invalid ranking request")
)

// errorKind labels err for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrUpstreamAuth):
		return "upstream_auth"
	case errors.Is(err, ErrUpstreamRequest):
		return "upstream_request"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return "other"
	}
}
