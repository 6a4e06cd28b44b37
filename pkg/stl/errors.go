package stl

import "errors"

var (
	// ErrMalformedSTL is returned when the input cannot be read as an STL
	// solid, e.g. a facet without exactly three vertices or a bad number.
	ErrMalformedSTL = errors.New("malformed STL")

	// ErrFacetSetMismatch is returned when a storage order does not name
	// every facet of the solid exactly once.
	ErrFacetSetMismatch = errors.New("facet set mismatch")
)
