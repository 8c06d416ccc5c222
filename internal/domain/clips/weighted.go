package clips

import (
	"github.com/forPelevin/clipmash/internal/domain/random"
	"github.com/forPelevin/clipmash/internal/types"
)

// WeightedRandomPicker fills Length seconds by drawing a title by weight,
// then a random marker with that title, and cutting the next clip from
// where that marker was left off. A title runs out once all its markers
// are used up.
type WeightedRandomPicker struct {
	Options WeightedRandomOptions
}

func (WeightedRandomPicker) Name() string { return "weighted_random" }

func (p WeightedRandomPicker) Pick(markers []types.Marker, r *random.Rand) []types.Clip {
	o := p.Options
	weights := make(map[string]float64, len(o.Weights))
	for _, w := range o.Weights {
		if w.Weight > 0 {
			weights[w.Title] = w.Weight
		}
	}
	byTitle := make(map[string][]*cursor)
	for _, c := range newCursors(markers) {
		if _, ok := weights[c.marker.Title]; ok {
			byTitle[c.marker.Title] = append(byTitle[c.marker.Title], c)
		}
	}

	// Titles keep the order they were given in so draws are reproducible.
	var (
		titles []string
		odds   []float64
	)
	for _, w := range o.Weights {
		if w.Weight > 0 && len(byTitle[w.Title]) > 0 {
			titles = append(titles, w.Title)
			odds = append(odds, w.Weight)
		}
	}

	src := newDurationSource(o.Lengths)
	var (
		out   []types.Clip
		total float64
		left  = len(titles)
	)
	for total < o.Length && left > 0 {
		ti := weightedIndex(odds, r)
		title := titles[ti]
		cs := byTitle[title]
		ci := r.IntN(len(cs))

		d, ok := src.Next(r)
		if !ok {
			break
		}
		if d <= 0 {
			continue
		}
		c := cs[ci]
		start, end, _, done := c.take(d)
		if end-start > o.MinClipDuration {
			out = append(out, c.clip(start, end))
			total += end - start
		}
		if done {
			cs = removeCursor(cs, ci)
			byTitle[title] = cs
			if len(cs) == 0 {
				odds[ti] = 0
				left--
			}
		}
	}
	return Trim(out, o.Length)
}
