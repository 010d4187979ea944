package discover

import "github.com/kailas-cloud/discover/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidRequest     = domain.ErrInvalidRequest
	ErrQuerySyntax        = domain.ErrQuerySyntax
	ErrServiceUnavailable = domain.ErrServiceUnavailable
	ErrSuperseded         = domain.ErrSuperseded
	ErrNotFound           = domain.ErrNotFound
)
