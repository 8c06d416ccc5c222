// Package clips turns markers into an ordered, budgeted list of clips.
// Everything here is pure; all randomness comes from the *random.Rand the
// caller passes in.
package clips

import (
	"fmt"

	"github.com/forPelevin/clipmash/internal/domain/random"
	"github.com/forPelevin/clipmash/internal/types"
)

// Picker splits markers into clips.
type Picker interface {
	Name() string
	Pick(markers []types.Marker, r *random.Rand) []types.Clip
}

// NewPicker returns the picker for the given options, with an unset
// MinClipDuration replaced by DefaultMinClipDuration. It panics on options
// that fail validation; callers are expected to Validate first.
func NewPicker(o ClipOptions) Picker {
	if o == nil {
		panic("clips: nil clip options")
	}
	if err := o.Validate(); err != nil {
		panic(fmt.Sprintf("clips: invalid clip options: %v", err))
	}
	switch o := o.(type) {
	case EqualLengthOptions:
		o.MinClipDuration = withDefaultMin(o.MinClipDuration)
		return EqualLengthPicker{Options: o}
	case PmvOptions:
		o.MinClipDuration = withDefaultMin(o.MinClipDuration)
		return PmvPicker{Options: o}
	case WeightedRandomOptions:
		o.MinClipDuration = withDefaultMin(o.MinClipDuration)
		return WeightedRandomPicker{Options: o}
	case RoundRobinOptions:
		o.MinClipDuration = withDefaultMin(o.MinClipDuration)
		return RoundRobinPicker{Options: o}
	case NoSplitOptions:
		return NoSplitPicker{}
	default:
		panic(fmt.Sprintf("clips: unknown clip options %T", o))
	}
}

// EqualLengthPicker cuts each marker into pieces whose lengths are drawn
// from clip_duration / divisor.
type EqualLengthPicker struct {
	Options EqualLengthOptions
}

func (EqualLengthPicker) Name() string { return "equal_length" }

func (p EqualLengthPicker) Pick(markers []types.Marker, r *random.Rand) []types.Clip {
	o := p.Options
	if len(o.Divisors) == 0 {
		panic("clips: equal-length picker needs at least one divisor")
	}
	lengths := make([]float64, len(o.Divisors))
	for i, d := range o.Divisors {
		lengths[i] = max(o.ClipDuration/d, o.MinClipDuration)
		if lengths[i] <= 0 {
			panic(fmt.Sprintf("clips: non-positive clip length for divisor %v", d))
		}
	}
	next := func() (float64, bool) { return lengths[r.IntN(len(lengths))], true }
	return split(markers, o.MinClipDuration, o.Length, next)
}

// PmvPicker cuts markers with durations from a RandomizedSequencer or a
// SongSequencer. It stops as soon as the sequencer runs dry.
type PmvPicker struct {
	Options PmvOptions
}

func (PmvPicker) Name() string { return "pmv" }

func (p PmvPicker) Pick(markers []types.Marker, r *random.Rand) []types.Clip {
	src := newDurationSource(p.Options.Lengths)
	next := func() (float64, bool) { return src.Next(r) }
	return split(markers, p.Options.MinClipDuration, p.Options.Length, next)
}

type NoSplitPicker struct{}

func (NoSplitPicker) Name() string { return "no_split" }

func (NoSplitPicker) Pick(markers []types.Marker, _ *random.Rand) []types.Clip {
	out := make([]types.Clip, 0, len(markers))
	for _, m := range markers {
		if m.End <= m.Start {
			continue
		}
		out = append(out, clipOf(m, m.Start, m.End, 0))
	}
	return out
}

// split walks every marker from start to end, taking one duration per step.
// A piece is kept only when it is longer than minClip. The offset always
// moves by the drawn duration, even when the piece was clamped to the
// marker end or dropped. A duration too small to move the offset ends the
// marker.
func split(markers []types.Marker, minClip float64, length *float64, next func() (float64, bool)) []types.Clip {
	var (
		out   []types.Clip
		total float64
	)
markers:
	for _, m := range markers {
		if length != nil && total >= *length {
			break
		}
		index := 0
		for offset := m.Start; offset < m.End; {
			d, ok := next()
			if !ok {
				break markers
			}
			start := offset
			end := min(offset+d, m.End)
			if end-start > minClip {
				out = append(out, clipOf(m, start, end, index))
				index++
				total += end - start
			}
			if d <= 0 {
				// Zero-length steps come from a song ending on its first beat;
				// the next call moves to another song.
				continue
			}
			if offset+d <= offset {
				break
			}
			offset += d
		}
	}
	if length != nil {
		out = Trim(out, *length)
	}
	return out
}

func clipOf(m types.Marker, start, end float64, index int) types.Clip {
	return types.Clip{
		Source:            m.VideoID.Source,
		VideoID:           m.VideoID,
		MarkerID:          m.ID,
		Range:             types.Range{start, end},
		IndexWithinMarker: index,
		IndexWithinVideo:  m.IndexWithinVideo,
		MarkerTitle:       m.Title,
	}
}
