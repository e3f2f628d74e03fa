package testutil

import (
	"net/http"

	"pwreset/pkg/requestcontext"
)

// WithSubject adds a reset subject to the request context.
// This simulates what the reset token middleware does for a valid token.
func WithSubject(req *http.Request, subject string) *http.Request {
	return req.WithContext(requestcontext.WithSubject(req.Context(), subject))
}

// WithBearer sets the Authorization header to a bearer token.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
