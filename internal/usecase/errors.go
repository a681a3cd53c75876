package usecase

import "errors"

// ErrInvalidParams marks request-level failures. Handlers map anything
// wrapping it to a 400 response instead of a generic 500.
var ErrInvalidParams = errors.New("invalid parameters")
