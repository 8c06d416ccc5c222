package clips

import "github.com/forPelevin/clipmash/internal/types"

// Trim keeps clips in order until their total reaches maxLen. The clip that
// crosses the budget is shortened to fit and everything after it is
// dropped; a clip that would end up with no duration is dropped as well.
func Trim(clips []types.Clip, maxLen float64) []types.Clip {
	out := make([]types.Clip, 0, len(clips))
	var acc float64
	for _, c := range clips {
		d := c.Duration()
		if acc+d > maxLen {
			if rem := maxLen - acc; rem > 0 {
				c.Range[1] = c.Range[0] + rem
				out = append(out, c)
			}
			break
		}
		out = append(out, c)
		acc += d
	}
	return out
}

// Merge joins runs of neighbouring clips cut from the same marker into one
// clip spanning from the first start to the last end. Only runs moving
// forward through the marker are joined.
func Merge(clips []types.Clip) []types.Clip {
	out := make([]types.Clip, 0, len(clips))
	for _, c := range clips {
		if n := len(out); n > 0 {
			prev := &out[n-1]
			if prev.MarkerID == c.MarkerID && prev.VideoID == c.VideoID && c.Range[1] > prev.Range[1] {
				prev.Range[1] = c.Range[1]
				continue
			}
		}
		out = append(out, c)
	}
	return out
}
