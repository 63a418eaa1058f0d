package potential

import "errors"

var (
	// ErrInvalidConfiguration reports zero or negative dimensions or
	// granularity, or solver parameters rejected by strict validation.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidRegion reports a line or rectangle that does not fit on the
	// mesh. No point is modified when it is returned.
	ErrInvalidRegion = errors.New("invalid region")

	// ErrConvergenceNotReached reports a solve that stopped before the
	// maximum change fell to epsilon.
	ErrConvergenceNotReached = errors.New("convergence not reached")
)
