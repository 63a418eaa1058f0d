package potential

// Option configures optional solver hardening on a Grid. Without options the
// grid behaves like the reference design: no iteration ceiling and no
// range checks on acceleration or epsilon.
type Option func(*settings)

type settings struct {
	maxIterations int
	strict        bool
}

// WithMaxIterations caps the number of SOR sweeps per Solve call. When the
// cap is hit Solve returns ErrConvergenceNotReached. n <= 0 means unbounded.
func WithMaxIterations(n int) Option {
	return func(s *settings) {
		if n < 0 {
			n = 0
		}
		s.maxIterations = n
	}
}

// WithStrictValidation makes Solve reject an acceleration outside [1, 2] or
// a non-positive epsilon with ErrInvalidConfiguration.
func WithStrictValidation() Option {
	return func(s *settings) {
		s.strict = true
	}
}
