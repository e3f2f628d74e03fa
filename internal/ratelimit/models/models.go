package models

import (
	"fmt"
	"time"
)

// EndpointClass categorizes endpoints for differentiated rate limiting.
type EndpointClass string

const (
	// ClassReset: password submission, the brute-force target.
	ClassReset EndpointClass = "reset"
	// ClassEvaluate: live feedback calls, one per keystroke.
	ClassEvaluate EndpointClass = "evaluate"
	// ClassAdmin: operator endpoints.
	ClassAdmin EndpointClass = "admin"
)

// IsValid checks if the endpoint class is one of the supported enum values.
func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassReset, ClassEvaluate, ClassAdmin:
		return true
	}
	return false
}

// Limit is the request budget of one endpoint class per client.
type Limit struct {
	Requests int
	Window   time.Duration
}

func (l Limit) Validate() error {
	if l.Requests <= 0 {
		return fmt.Errorf("requests must be positive, got %d", l.Requests)
	}
	if l.Window <= 0 {
		return fmt.Errorf("window must be positive, got %s", l.Window)
	}
	return nil
}

// DefaultLimits are per client IP.
func DefaultLimits() map[EndpointClass]Limit {
	return map[EndpointClass]Limit{
		ClassReset:    {Requests: 10, Window: time.Minute},
		ClassEvaluate: {Requests: 300, Window: time.Minute},
		ClassAdmin:    {Requests: 60, Window: time.Minute},
	}
}

// RateLimitResult is the outcome of one bucket check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, set when denied
}

// BucketKey scopes a client's bucket to an endpoint class.
func BucketKey(class EndpointClass, clientIP string) string {
	return "ratelimit:" + string(class) + ":" + clientIP
}

// RateLimitExceededResponse is the API response when rate limit is exceeded.
type RateLimitExceededResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
	RetryAfter  int    `json:"retry_after"` // seconds
}
