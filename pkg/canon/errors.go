package canon

import "errors"

var (
	// ErrAmbiguousOrder is returned when the solid's geometry does not
	// single out one facet order: equal principal variances, an axis whose
	// direction cannot be told apart from its reverse, or facets whose keys
	// coincide. Such solids cannot carry a watermark reliably.
	ErrAmbiguousOrder = errors.New("ambiguous canonical order")

	// ErrDegenerateMesh is returned for solids too small or too flat to
	// define a principal frame.
	ErrDegenerateMesh = errors.New("degenerate mesh")
)
