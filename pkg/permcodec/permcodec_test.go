package permcodec

import (
	"bytes"
	"math/big"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankUnrankSmall(t *testing.T) {
	// All permutations of three elements in lexicographic order
	perms := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	for i, perm := range perms {
		k, err := Rank(perm)
		require.NoError(t, err)
		assert.Equal(t, int64(i), k.Int64(), "rank of %v", perm)

		got, err := Unrank(big.NewInt(int64(i)), 3)
		require.NoError(t, err)
		assert.Equal(t, perm, got, "unrank of %d", i)
	}
}

// hornerRank is the digit-by-digit reference the split conversion must match.
func hornerRank(perm []int) *big.Int {
	n := len(perm)
	k := new(big.Int)
	for i, v := range perm {
		d := 0
		for _, w := range perm[i+1:] {
			if w < v {
				d++
			}
		}
		k.Mul(k, big.NewInt(int64(n-i)))
		k.Add(k, big.NewInt(int64(d)))
	}
	return k
}

func TestRankMatchesHorner(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{31, 32, 33, 64, 65, 257, 600} {
		perm := rng.Perm(n)
		k, err := Rank(perm)
		require.NoError(t, err)
		assert.Zero(t, hornerRank(perm).Cmp(k), "n=%d", n)
	}
}

func TestUnrankLastPermutation(t *testing.T) {
	n := 300
	last := new(big.Int).Sub(Factorial(n), big.NewInt(1))
	perm, err := Unrank(last, n)
	require.NoError(t, err)
	for i, v := range perm {
		require.Equal(t, n-1-i, v)
	}

	_, err = Unrank(Factorial(n), n)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestRankUnrankManyFacets(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	perm := rng.Perm(20000)
	k, err := Rank(perm)
	require.NoError(t, err)

	got, err := Unrank(k, len(perm))
	require.NoError(t, err)
	assert.Equal(t, perm, got)
}

func TestIntToPayloadLengthBoundaries(t *testing.T) {
	for l := 1; l <= 6; l++ {
		offset := payloadOffset(l)

		p, err := IntToPayload(offset, 10)
		require.NoError(t, err)
		assert.Equal(t, make([]byte, l), p, "first payload of length %d", l)

		p, err = IntToPayload(new(big.Int).Sub(offset, big.NewInt(1)), 10)
		require.NoError(t, err)
		assert.Equal(t, bytes.Repeat([]byte{0xff}, l-1), p, "last payload of length %d", l-1)
	}

	_, err := IntToPayload(payloadOffset(4), 3)
	assert.ErrorIs(t, err, ErrMalformedPayload)
	p, err := IntToPayload(new(big.Int).Sub(payloadOffset(4), big.NewInt(1)), 3)
	require.NoError(t, err)
	assert.Len(t, p, 3)
}

func TestRankUnrankLarge(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{1, 2, 17, 100, 1000} {
		perm := rng.Perm(n)
		k, err := Rank(perm)
		require.NoError(t, err)
		assert.Negative(t, k.Cmp(Factorial(n)))

		got, err := Unrank(k, n)
		require.NoError(t, err)
		assert.Equal(t, perm, got, "n=%d", n)
	}
}

func TestRankRejectsNonPermutation(t *testing.T) {
	for _, perm := range [][]int{{0, 0, 1}, {0, 3, 1}, {-1, 0, 1}} {
		_, err := Rank(perm)
		assert.ErrorIs(t, err, ErrFacetSetMismatch, "perm %v", perm)
	}
}

func TestUnrankOutOfRange(t *testing.T) {
	_, err := Unrank(big.NewInt(6), 3)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = Unrank(big.NewInt(-1), 3)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	perm, err := Unrank(big.NewInt(5), 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 0}, perm)
}

func TestPayloadNumbering(t *testing.T) {
	tests := []struct {
		msg  []byte
		want int64
	}{
		{nil, 0},
		{[]byte{0x00}, 1},
		{[]byte{0x05}, 6},
		{[]byte{0xff}, 256},
		{[]byte{0x00, 0x00}, 257},
		{[]byte{0x01, 0x00}, 513},
	}
	for _, tt := range tests {
		k := PayloadToInt(tt.msg)
		assert.Equal(t, tt.want, k.Int64(), "payload %x", tt.msg)

		back, err := IntToPayload(k, 8)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(tt.msg, back), "payload %x came back as %x", tt.msg, back)
	}
}

func TestIntToPayloadTooLong(t *testing.T) {
	_, err := IntToPayload(big.NewInt(257), 1)
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = IntToPayload(big.NewInt(1), 0)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestCapacity(t *testing.T) {
	tests := []struct {
		n, bits, capacity int
	}{
		{0, 0, 0},
		{1, 0, 0},
		{5, 6, 0},
		{6, 9, 1},
		{12, 28, 3},
		{20, 61, 7},
		{100, 524, 65},
		// 133 bytes would need slightly more than 176! values
		{176, 1064, 132},
		{177, 1071, 133},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.bits, Bits(tt.n), "Bits(%d)", tt.n)
		assert.Equal(t, tt.capacity, Capacity(tt.n), "Capacity(%d)", tt.n)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ref := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}

	payloads := [][]byte{
		nil,
		{0x05},
		{0x00},
		{0x00, 0x00, 0x00},
		{0xff, 0xff, 0xff},
		{'h', 'i', 0x00},
	}
	for i := 0; i < 50; i++ {
		msg := make([]byte, rng.Intn(Capacity(len(ref))+1))
		rng.Read(msg)
		payloads = append(payloads, msg)
	}

	for _, msg := range payloads {
		ord, err := Encode(ref, msg)
		require.NoError(t, err)

		// Always a rearrangement of the reference
		sorted := append([]string(nil), ord...)
		sort.Strings(sorted)
		assert.Equal(t, ref, sorted)

		got, err := Decode(ref, ord)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(msg, got), "payload %x came back as %x", msg, got)
	}
}

func TestEncodeCapacityBoundary(t *testing.T) {
	ref := make([]int, 12)
	for i := range ref {
		ref[i] = 100 + i
	}

	full := []byte{0xff, 0xfe, 0xfd}
	ord, err := Encode(ref, full)
	require.NoError(t, err)
	got, err := Decode(ref, ord)
	require.NoError(t, err)
	assert.Equal(t, full, got)

	_, err = Encode(ref, []byte{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestEmptyPayloadKeepsReferenceOrder(t *testing.T) {
	ref := []int{4, 2, 7, 1, 9}
	ord, err := Encode(ref, nil)
	require.NoError(t, err)
	assert.Equal(t, ref, ord)

	got, err := Decode(ref, ref)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeOrderDefaultsToStorageOrder(t *testing.T) {
	identity := []int{0, 1, 2, 3, 4, 5}
	spelled, err := Encode(identity, []byte{0x05})
	require.NoError(t, err)

	// a reference under which the storage order itself spells the payload
	ref := make([]int, len(spelled))
	for pos, idx := range spelled {
		ref[idx] = pos
	}

	got, err := DecodeOrder(ref, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x05}, got)

	want, err := Decode(ref, identity)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeOrderNilMatchesIdentityErrors(t *testing.T) {
	// four elements carry no payload, so only the reference order decodes
	ref := []int{3, 0, 2, 1}
	_, errNil := DecodeOrder(ref, nil)
	_, errIdentity := Decode(ref, []int{0, 1, 2, 3})
	assert.ErrorIs(t, errNil, ErrMalformedPayload)
	assert.ErrorIs(t, errIdentity, ErrMalformedPayload)
}

func TestDecodeMismatch(t *testing.T) {
	ref := []int{0, 1, 2, 3}

	_, err := Decode(ref, []int{0, 1, 2})
	assert.ErrorIs(t, err, ErrFacetSetMismatch)

	_, err = Decode(ref, []int{0, 1, 2, 5})
	assert.ErrorIs(t, err, ErrFacetSetMismatch)

	_, err = Decode(ref, []int{0, 1, 1, 3})
	assert.ErrorIs(t, err, ErrFacetSetMismatch)

	_, err = Decode([]int{0, 0, 1, 2}, []int{0, 0, 1, 2})
	assert.ErrorIs(t, err, ErrFacetSetMismatch)

	_, err = Encode([]int{1, 1}, nil)
	assert.ErrorIs(t, err, ErrFacetSetMismatch)
}

func TestDecodeRejectsOrdersOutsidePayloadRange(t *testing.T) {
	// 6 elements carry at most one byte (257 of 720 orders are used)
	ref := []int{0, 1, 2, 3, 4, 5}
	_, err := Decode(ref, []int{5, 4, 3, 2, 1, 0})
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestFenwickNth(t *testing.T) {
	f := newFenwick(5, true)
	f.add(1, -1)
	f.add(3, -1)
	assert.Equal(t, 0, f.nth(0))
	assert.Equal(t, 2, f.nth(1))
	assert.Equal(t, 4, f.nth(2))
	assert.Equal(t, 1, f.countBelow(2))
}
