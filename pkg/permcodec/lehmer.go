// Package permcodec maps byte payloads to permutations and back.
//
// A permutation of n elements is ranked with its Lehmer code, the digits
// of its index in the factorial number system, which gives a bijection
// between the n! permutations and the integers 0..n!-1. Payloads are
// mapped to integers by enumerating byte strings shortest first, so
// every payload up to Capacity(n) bytes has exactly one permutation.
package permcodec

import (
	"fmt"
	"math/big"
)

// leafDigits is the digit run converted one radix at a time. Longer runs
// are split in halves so that big multiplications and divisions work on
// operands of similar size.
const leafDigits = 32

// Rank returns the index of perm, a permutation of 0..len(perm)-1, among
// all permutations in lexicographic order.
func Rank(perm []int) (*big.Int, error) {
	n := len(perm)
	seen := newFenwick(n, false)
	used := make([]bool, n)

	digits := make([]int, n)
	for i, v := range perm {
		if v < 0 || v >= n || used[v] {
			return nil, fmt.Errorf("%w: position %d holds %d, not a permutation of 0..%d", ErrFacetSetMismatch, i, v, n-1)
		}
		used[v] = true

		// Lehmer digit: how many later elements are smaller than v
		digits[i] = v - seen.countBelow(v)
		seen.add(v, 1)
	}
	return joinDigits(digits, n, 0, n), nil
}

// Unrank returns the permutation of 0..n-1 with index k. It fails with
// ErrCapacityExceeded unless 0 <= k < n!.
func Unrank(k *big.Int, n int) ([]int, error) {
	if k.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative rank", ErrCapacityExceeded)
	}
	if k.Cmp(Factorial(n)) >= 0 {
		return nil, fmt.Errorf("%w: rank does not fit in %d! permutations", ErrCapacityExceeded, n)
	}

	digits := make([]int, n)
	splitDigits(new(big.Int).Set(k), digits, n, 0, n)

	free := newFenwick(n, true)
	perm := make([]int, n)
	for i, d := range digits {
		v := free.nth(d)
		perm[i] = v
		free.add(v, -1)
	}
	return perm, nil
}

// radixProduct returns the product of the radices of digits lo..hi-1.
// Digit i of an n-element Lehmer code has radix n-i.
func radixProduct(n, lo, hi int) *big.Int {
	if lo >= hi {
		return big.NewInt(1)
	}
	return new(big.Int).MulRange(int64(n-hi+1), int64(n-lo))
}

// joinDigits returns the value of the mixed-radix digits lo..hi-1, with
// digit hi-1 the least significant.
func joinDigits(digits []int, n, lo, hi int) *big.Int {
	if hi-lo <= leafDigits {
		k := new(big.Int)
		radix := new(big.Int)
		digit := new(big.Int)
		for i := lo; i < hi; i++ {
			k.Mul(k, radix.SetInt64(int64(n-i)))
			k.Add(k, digit.SetInt64(int64(digits[i])))
		}
		return k
	}
	mid := lo + (hi-lo)/2
	k := joinDigits(digits, n, lo, mid)
	k.Mul(k, radixProduct(n, mid, hi))
	return k.Add(k, joinDigits(digits, n, mid, hi))
}

// splitDigits inverts joinDigits. k must be below radixProduct(n, lo, hi)
// and is consumed.
func splitDigits(k *big.Int, digits []int, n, lo, hi int) {
	if hi-lo <= leafDigits {
		radix := new(big.Int)
		rem := new(big.Int)
		for i := hi - 1; i >= lo; i-- {
			k.QuoRem(k, radix.SetInt64(int64(n-i)), rem)
			digits[i] = int(rem.Int64())
		}
		return
	}
	mid := lo + (hi-lo)/2
	high, low := new(big.Int).QuoRem(k, radixProduct(n, mid, hi), new(big.Int))
	splitDigits(high, digits, n, lo, mid)
	splitDigits(low, digits, n, mid, hi)
}

// Factorial returns n!.
func Factorial(n int) *big.Int {
	if n < 2 {
		return big.NewInt(1)
	}
	return new(big.Int).MulRange(1, int64(n))
}
