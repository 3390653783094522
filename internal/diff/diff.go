// Package diff computes word-level diffs and merges accepted suggestions
// into a resume.
package diff

import (
	"strings"

	"resumescan/internal/types"
)

type op struct {
	kind types.DiffOp
	word string
}

// WordDiff returns the word-level edit script turning a into b. Whitespace
// is trimmed and collapsed on both sides first.
func WordDiff(a, b string) []types.DiffChunk {
	aw := strings.Fields(a)
	bw := strings.Fields(b)

	switch {
	case len(aw) == 0 && len(bw) == 0:
		return []types.DiffChunk{}
	case len(aw) == 0:
		return []types.DiffChunk{{Type: types.DiffInsert, Value: strings.Join(bw, " ")}}
	case len(bw) == 0:
		return []types.DiffChunk{{Type: types.DiffDelete, Value: strings.Join(aw, " ")}}
	}

	return coalesce(myers(aw, bw))
}

// myers runs the greedy O(ND) shortest edit script search and backtracks
// through the saved frontiers to recover the script.
func myers(a, b []string) []op {
	n, m := len(a), len(b)
	max := n + m
	offset := max + 1
	v := make([]int, 2*max+3)
	var trace [][]int

search:
	for d := 0; d <= max; d++ {
		frontier := make([]int, len(v))
		copy(frontier, v)
		trace = append(trace, frontier)

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[offset+k] = x
			if x >= n && y >= m {
				break search
			}
		}
	}

	var ops []op
	x, y := n, m
	for d := len(trace) - 1; d >= 0; d-- {
		frontier := trace[d]
		k := x - y

		var prevK int
		if k == -d || (k != d && frontier[offset+k-1] < frontier[offset+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := frontier[offset+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			ops = append(ops, op{types.DiffEqual, a[x-1]})
			x--
			y--
		}
		if d > 0 {
			if x == prevX {
				ops = append(ops, op{types.DiffInsert, b[y-1]})
			} else {
				ops = append(ops, op{types.DiffDelete, a[x-1]})
			}
		}
		x, y = prevX, prevY
	}

	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
	return ops
}

func coalesce(ops []op) []types.DiffChunk {
	chunks := make([]types.DiffChunk, 0, len(ops))
	var words []string
	var current types.DiffOp

	flush := func() {
		if len(words) > 0 {
			chunks = append(chunks, types.DiffChunk{Type: current, Value: strings.Join(words, " ")})
			words = words[:0]
		}
	}

	for _, o := range ops {
		if o.kind != current {
			flush()
			current = o.kind
		}
		words = append(words, o.word)
	}
	flush()
	return chunks
}
