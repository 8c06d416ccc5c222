package clips

import (
	"errors"
	"fmt"
	"sort"

	"github.com/forPelevin/clipmash/internal/domain/random"
	"github.com/forPelevin/clipmash/internal/types"
)

type ArrangeOptions struct {
	Markers []types.Marker
	Clips   ClipOptions
	Order   Order
	// Seed nil means random.DefaultSeed.
	Seed        *string
	MaxDuration *float64
	Merge       bool
}

type Result struct {
	Clips         []types.Clip
	Picker        string
	Order         OrderKind
	BeatOffsets   []float64
	TotalDuration float64
}

func (o ArrangeOptions) Validate() error {
	if o.Clips == nil {
		return errors.New("clips: options are required")
	}
	if err := o.Clips.Validate(); err != nil {
		return fmt.Errorf("clips: %w", err)
	}
	if err := o.Order.Validate(); err != nil {
		return fmt.Errorf("order: %w", err)
	}
	if o.MaxDuration != nil && *o.MaxDuration <= 0 {
		return errors.New("max_duration must be > 0")
	}
	return nil
}

// Arrange runs the whole engine: normalise video indices, pick, sort, trim
// and merge. Invalid options panic; call Validate first.
func Arrange(o ArrangeOptions) Result {
	if err := o.Validate(); err != nil {
		panic(fmt.Sprintf("clips: %v", err))
	}
	markers := NormalizeVideoIndices(o.Markers)
	r := random.Seeded(o.Seed)

	picker := NewPicker(o.Clips)
	out := picker.Pick(markers, r)
	if s := NewSorter(o.Order); s != nil {
		out = s.Sort(out, r)
	}
	if o.MaxDuration != nil {
		out = Trim(out, *o.MaxDuration)
	}
	if o.Merge {
		out = Merge(out)
	}

	res := Result{
		Clips:         out,
		Picker:        picker.Name(),
		Order:         o.Order.Kind,
		TotalDuration: types.TotalDuration(out),
	}
	if songs, ok := SongLengthsOf(o.Clips); ok {
		res.BeatOffsets = BeatTimeline(songs.Songs)
	}
	return res
}

// NormalizeVideoIndices groups markers by video and renumbers
// IndexWithinVideo to a dense 0..n-1 rank inside each video. The result is
// ordered by video id; markers of one video keep their input order.
func NormalizeVideoIndices(markers []types.Marker) []types.Marker {
	out := append([]types.Marker(nil), markers...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].VideoID.Compare(out[j].VideoID) < 0
	})
	for start := 0; start < len(out); {
		end := start + 1
		for end < len(out) && out[end].VideoID == out[start].VideoID {
			end++
		}
		group := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			group = append(group, i)
		}
		sort.SliceStable(group, func(a, b int) bool {
			return out[group[a]].IndexWithinVideo < out[group[b]].IndexWithinVideo
		})
		for rank, i := range group {
			out[i].IndexWithinVideo = rank
		}
		start = end
	}
	return out
}

// BeatTimeline lays the songs end to end and returns every beat as an
// absolute offset into the combined track.
func BeatTimeline(songs []types.Beats) []float64 {
	var (
		out    []float64
		offset float64
	)
	for _, s := range songs {
		for _, b := range s.Offsets {
			out = append(out, offset+b)
		}
		offset += s.Length
	}
	return out
}
