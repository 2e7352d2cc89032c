package ordered

import (
	"errors"
	"math"
)

// ErrNotFinite is returned by NewFinite when given NaN or an infinity.
var ErrNotFinite = errors.New("ordered: value is not a finite float")

// Finite is a float64 known to be neither NaN nor an infinity, so it has a
// well-defined total order and can safely be used as a Map/Set key.
type Finite float64

// NewFinite validates f and wraps it as a Finite.
func NewFinite(f float64) (Finite, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrNotFinite
	}
	return Finite(f), nil
}

// Less reports whether f sorts before other.
func (f Finite) Less(other Finite) bool { return f < other }
