package permcodec

// fenwick counts which of the values 0..n-1 are present and answers
// prefix counts and order statistics in O(log n).
type fenwick struct {
	tree []int
	high int // highest power of two <= n
}

func newFenwick(n int, full bool) *fenwick {
	f := &fenwick{tree: make([]int, n+1), high: 1}
	for f.high*2 <= n {
		f.high *= 2
	}
	if full {
		for i := 1; i <= n; i++ {
			f.tree[i]++
			if j := i + (i & -i); j <= n {
				f.tree[j] += f.tree[i]
			}
		}
	}
	return f
}

// add changes the count of value v by delta.
func (f *fenwick) add(v, delta int) {
	for i := v + 1; i < len(f.tree); i += i & -i {
		f.tree[i] += delta
	}
}

// countBelow returns how many present values are smaller than v.
func (f *fenwick) countBelow(v int) int {
	sum := 0
	for i := v; i > 0; i -= i & -i {
		sum += f.tree[i]
	}
	return sum
}

// nth returns the k-th smallest present value, counting from zero.
func (f *fenwick) nth(k int) int {
	pos := 0
	for step := f.high; step > 0; step /= 2 {
		if next := pos + step; next < len(f.tree) && f.tree[next] <= k {
			pos = next
			k -= f.tree[next]
		}
	}
	return pos
}
