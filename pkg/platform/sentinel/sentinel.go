package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Adapters return these (optionally
// wrapped) and services translate them into domain errors:
//   - ErrNotFound: the subject has no stored credential
//   - ErrInvalidState: the adapter was asked to store something it cannot key
//   - ErrUnavailable: the backing store is temporarily unreachable
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
