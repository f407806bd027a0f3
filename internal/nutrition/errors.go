package nutrition

import (
	"errors"
	"strings"
)

// Predefined gateway errors.
var (
	// ErrOverloaded is surfaced when retries are exhausted on a
	// quota-class failure. The advice to wait roughly a minute matches
	// the rate-limit bucket refill of the generation service.
	ErrOverloaded = errors.New("generation service is overloaded (quota limit); wait about a minute and try again")

	// ErrMalformedResponse indicates the model returned something that is
	// not parseable JSON.
	ErrMalformedResponse = errors.New("malformed generation response")

	// ErrSchemaViolation indicates the returned document is missing
	// required fields declared by the request schema.
	ErrSchemaViolation = errors.New("generation response violates schema")

	// ErrNotConfigured is returned when the gateway has no generation
	// credential. The process runs degraded rather than crashing.
	ErrNotConfigured = errors.New("generation service is not configured")
)

// UpstreamError is a failure reported by the generation API, carrying the
// HTTP-like status used for quota classification.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return "generation api error: " + e.Message
}

// quotaMarkers are message substrings that mark an error as quota-class.
var quotaMarkers = []string{"429", "resource_exhausted", "quota", "rate limit"}

// IsQuotaError reports whether err is attributable to rate limiting or
// resource exhaustion: explicit status 429, or a message containing a
// known quota marker.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) && upstream.StatusCode == 429 {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
