package potential

// Point is one mesh node: a potential in volts and a lock flag.
// The zero value is a free point at 0 V.
type Point struct {
	value  float64
	locked bool
}

// Value returns the potential in volts.
func (p Point) Value() float64 { return p.value }

// Locked reports whether the point is held at a fixed potential.
func (p Point) Locked() bool { return p.locked }

// SetValue stores v unless the point is locked. Writes to a locked point are
// dropped without error; the solver depends on this to keep fixed regions
// untouched during relaxation.
func (p *Point) SetValue(v float64) {
	if !p.locked {
		p.value = v
	}
}

// SetLocked sets the lock flag unconditionally.
func (p *Point) SetLocked(locked bool) { p.locked = locked }

// Fixed returns a copy of p unlocked, set to v and locked again. Fixing an
// already fixed point replaces its potential.
func (p Point) Fixed(v float64) Point {
	p.SetLocked(false)
	p.SetValue(v)
	p.SetLocked(true)
	return p
}
