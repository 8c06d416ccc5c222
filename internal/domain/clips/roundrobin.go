package clips

import (
	"github.com/forPelevin/clipmash/internal/domain/random"
	"github.com/forPelevin/clipmash/internal/types"
)

// RoundRobinPicker takes one clip from every marker in turn, continuing each
// marker where its previous clip ended, until Length seconds are filled.
// When a duration runs past a marker's end, the remainder becomes the next
// duration so song-driven cuts stay on the beat. Song-driven clips are kept
// whatever their length; others must be longer than MinClipDuration.
type RoundRobinPicker struct {
	Options RoundRobinOptions
}

func (RoundRobinPicker) Name() string { return "round_robin" }

func (p RoundRobinPicker) Pick(markers []types.Marker, r *random.Rand) []types.Clip {
	o := p.Options
	_, onBeat := o.Lengths.(SongLengths)
	src := newDurationSource(o.Lengths)
	cs := newCursors(markers)

	var (
		out   []types.Clip
		total float64
		carry float64
		turn  int
	)
	for total < o.Length && len(cs) > 0 {
		d := carry
		carry = 0
		if d <= 0 {
			var ok bool
			if d, ok = src.Next(r); !ok {
				break
			}
			if d <= 0 {
				continue
			}
		}

		turn %= len(cs)
		c := cs[turn]
		start, end, overflow, done := c.take(d)
		carry = overflow
		if end > start && (onBeat || end-start > o.MinClipDuration) {
			out = append(out, c.clip(start, end))
			total += end - start
		}
		if done {
			cs = removeCursor(cs, turn)
			continue
		}
		turn++
	}
	return Trim(out, o.Length)
}
