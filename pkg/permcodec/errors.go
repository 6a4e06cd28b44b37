package permcodec

import "errors"

var (
	// ErrCapacityExceeded is returned when a payload holds more bytes than
	// the permutations of the reference can represent.
	ErrCapacityExceeded = errors.New("payload exceeds capacity")

	// ErrFacetSetMismatch is returned when a stored order is not a
	// rearrangement of the reference, or the reference repeats an element.
	ErrFacetSetMismatch = errors.New("order does not match reference")

	// ErrMalformedPayload is returned when a recovered permutation does
	// not correspond to any payload this codec produces.
	ErrMalformedPayload = errors.New("malformed payload")
)
