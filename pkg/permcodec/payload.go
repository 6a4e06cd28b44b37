package permcodec

import (
	"fmt"
	"math/big"
)

var radix256 = big.NewInt(256)

// Bits returns floor(log2(n!)), the whole bits of information in the
// order of n elements.
func Bits(n int) int {
	return Factorial(n).BitLen() - 1
}

// Capacity returns the longest payload, in bytes, that n elements can
// carry. It is floor(log2(n!)/8), one less in the rare cases where the
// payloads of that length do not all fit next to the shorter ones, so
// that bound is not always reached (n=176 carries 132 bytes, not 133).
func Capacity(n int) int {
	total := Factorial(n)
	c := Bits(n) / 8
	for c > 0 && payloadCount(c).Cmp(total) > 0 {
		c--
	}
	return c
}

// payloadCount returns the number of byte strings of length at most l.
func payloadCount(l int) *big.Int {
	return payloadOffset(l + 1)
}

// payloadOffset returns the number of byte strings shorter than l bytes,
// which is the integer assigned to the all-zero payload of length l.
func payloadOffset(l int) *big.Int {
	// (256^l - 1) / 255
	p := new(big.Int).Exp(radix256, big.NewInt(int64(l)), nil)
	p.Sub(p, big.NewInt(1))
	return p.Quo(p, big.NewInt(255))
}

// PayloadToInt numbers byte strings shortest first: the empty payload is
// 0, the 256 one-byte payloads follow, and so on. Within one length the
// bytes are read as a big-endian number.
func PayloadToInt(msg []byte) *big.Int {
	k := new(big.Int).SetBytes(msg)
	return k.Add(k, payloadOffset(len(msg)))
}

// IntToPayload inverts PayloadToInt. Integers standing for payloads
// longer than maxLen bytes fail with ErrMalformedPayload.
func IntToPayload(k *big.Int, maxLen int) ([]byte, error) {
	if k.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative value", ErrMalformedPayload)
	}

	// payloadOffset(l) lies between 256^(l-1) and 256^l, so the length
	// is within one of the byte length of k
	length := (k.BitLen() + 7) / 8
	if length-1 > maxLen {
		return nil, fmt.Errorf("%w: decoded value needs more than %d bytes", ErrMalformedPayload, maxLen)
	}
	offset := payloadOffset(length)
	for length > 0 && offset.Cmp(k) > 0 {
		length--
		offset = payloadOffset(length)
	}
	if length > maxLen {
		return nil, fmt.Errorf("%w: decoded value needs more than %d bytes", ErrMalformedPayload, maxLen)
	}
	rest := new(big.Int).Sub(k, offset)
	return rest.FillBytes(make([]byte, length)), nil
}
