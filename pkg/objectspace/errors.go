package objectspace

import "errors"

// Usage errors. These are returned, never panicked: a caller that writes an
// unserializable value or queries a path that doesn't exist gets an error
// back, the same way store.ErrNotFound is a plain returned sentinel rather
// than a panic.
var (
	// ErrNotSerializable is returned when a value cannot be canonicalized,
	// e.g. it contains a channel, a function, or a cyclic structure.
	ErrNotSerializable = errors.New("objectspace: value is not serializable")

	// ErrNaN is returned when a float scalar is NaN or an infinity.
	ErrNaN = errors.New("objectspace: float value is not finite")

	// ErrFieldNotFound is returned by a by-key or by-range query whose path
	// has never been written to this type's entry.
	ErrFieldNotFound = errors.New("objectspace: field path not indexed")

	// ErrDomainMismatch is returned when a query key's scalar domain
	// (int/float/bool/string) doesn't match the domain already indexed at
	// the given path.
	ErrDomainMismatch = errors.New("objectspace: scalar domain mismatch")
)
