package permcodec

import "fmt"

// Encode returns ref rearranged so that the arrangement spells msg. The
// elements of ref must be distinct.
func Encode[T comparable](ref []T, msg []byte) ([]T, error) {
	if err := checkDistinct(ref); err != nil {
		return nil, err
	}
	n := len(ref)
	if limit := Capacity(n); len(msg) > limit {
		return nil, fmt.Errorf("%w: %d bytes, %d elements hold at most %d", ErrCapacityExceeded, len(msg), n, limit)
	}

	perm, err := Unrank(PayloadToInt(msg), n)
	if err != nil {
		return nil, err
	}

	ord := make([]T, n)
	for i, p := range perm {
		ord[i] = ref[p]
	}
	return ord, nil
}

// Decode recovers the payload spelled by ord relative to ref.
func Decode[T comparable](ref, ord []T) ([]byte, error) {
	if len(ord) != len(ref) {
		return nil, fmt.Errorf("%w: order has %d elements, reference %d", ErrFacetSetMismatch, len(ord), len(ref))
	}
	pos := make(map[T]int, len(ref))
	for i, r := range ref {
		if _, dup := pos[r]; dup {
			return nil, fmt.Errorf("%w: reference repeats element at %d", ErrFacetSetMismatch, i)
		}
		pos[r] = i
	}

	perm := make([]int, len(ord))
	for i, o := range ord {
		p, ok := pos[o]
		if !ok {
			return nil, fmt.Errorf("%w: element at position %d is not in the reference", ErrFacetSetMismatch, i)
		}
		perm[i] = p
	}

	k, err := Rank(perm)
	if err != nil {
		return nil, err
	}
	return IntToPayload(k, Capacity(len(ref)))
}

// DecodeOrder decodes an order given as indices. A nil ord stands for the
// storage order of a freshly loaded solid, 0..len(ref)-1.
func DecodeOrder(ref, ord []int) ([]byte, error) {
	if ord == nil {
		ord = make([]int, len(ref))
		for i := range ord {
			ord[i] = i
		}
	}
	return Decode(ref, ord)
}

func checkDistinct[T comparable](ref []T) error {
	seen := make(map[T]struct{}, len(ref))
	for i, r := range ref {
		if _, dup := seen[r]; dup {
			return fmt.Errorf("%w: reference repeats element at %d", ErrFacetSetMismatch, i)
		}
		seen[r] = struct{}{}
	}
	return nil
}
