package clips

import (
	"github.com/forPelevin/clipmash/internal/domain/random"
	"github.com/forPelevin/clipmash/internal/types"
)

// exhaustedSlack is how close to its end a marker counts as used up.
const exhaustedSlack = 0.001

// cursor tracks how far into a marker the clips taken from it reach.
type cursor struct {
	marker types.Marker
	offset float64
	index  int
}

func newCursors(markers []types.Marker) []*cursor {
	out := make([]*cursor, 0, len(markers))
	for _, m := range markers {
		if m.End-m.Start <= exhaustedSlack {
			continue
		}
		out = append(out, &cursor{marker: m, offset: m.Start})
	}
	return out
}

// take cuts up to d seconds from the cursor position. overflow is the part
// of d past the marker end. It returns done when the marker is used up or d
// cannot move the cursor.
func (c *cursor) take(d float64) (start, end, overflow float64, done bool) {
	start = c.offset
	end = min(start+d, c.marker.End)
	if start+d > c.marker.End {
		overflow = start + d - c.marker.End
	}
	c.offset = end
	done = end <= start || c.marker.End-end < exhaustedSlack
	return start, end, overflow, done
}

func (c *cursor) clip(start, end float64) types.Clip {
	cl := clipOf(c.marker, start, end, c.index)
	c.index++
	return cl
}

func removeCursor(cs []*cursor, i int) []*cursor {
	return append(cs[:i], cs[i+1:]...)
}

// weightedIndex draws i with probability weights[i] / sum(weights). All
// weights must be >= 0 with a positive sum.
func weightedIndex(weights []float64, r *random.Rand) int {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	x := r.Float64() * sum
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if x < w {
			return i
		}
		x -= w
		last = i
	}
	return last
}
