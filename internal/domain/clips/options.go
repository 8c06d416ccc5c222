package clips

import (
	"errors"
	"fmt"
	"math"

	"github.com/forPelevin/clipmash/internal/types"
)

// DefaultMinClipDuration is the shortest clip a splitting picker keeps.
const DefaultMinClipDuration = 1.5

var ErrNoSongs = errors.New("at least one song is required")

// ClipOptions selects a picker. Implemented by EqualLengthOptions,
// PmvOptions, WeightedRandomOptions, RoundRobinOptions and NoSplitOptions.
type ClipOptions interface {
	Validate() error
	clipOptions()
}

type EqualLengthOptions struct {
	ClipDuration float64
	Divisors     []float64
	// MinClipDuration zero means DefaultMinClipDuration when the picker is
	// built with NewPicker.
	MinClipDuration float64
	// Length caps the total output duration when set.
	Length *float64
}

type PmvOptions struct {
	Lengths         PmvClipLengths
	MinClipDuration float64
	Length          *float64
}

// TitleWeight is the relative chance of drawing a marker with Title.
type TitleWeight struct {
	Title  string
	Weight float64
}

// WeightedRandomOptions draws the marker for every clip by title weight
// until Length seconds are filled. Markers whose title has no weight, or a
// zero weight, are never used.
type WeightedRandomOptions struct {
	Weights         []TitleWeight
	Lengths         PmvClipLengths
	MinClipDuration float64
	Length          float64
}

// RoundRobinOptions takes one clip from each marker in turn until Length
// seconds are filled.
type RoundRobinOptions struct {
	Lengths         PmvClipLengths
	MinClipDuration float64
	Length          float64
}

// NoSplitOptions turns every marker into exactly one clip.
type NoSplitOptions struct{}

func (EqualLengthOptions) clipOptions()    {}
func (PmvOptions) clipOptions()            {}
func (WeightedRandomOptions) clipOptions() {}
func (RoundRobinOptions) clipOptions()     {}
func (NoSplitOptions) clipOptions()        {}

// PmvClipLengths is where a PMV picker takes its clip durations from.
// Implemented by RandomizedLengths and SongLengths.
type PmvClipLengths interface {
	Validate() error
	pmvClipLengths()
}

type RandomizedLengths struct {
	BaseDuration float64
	Divisors     []float64
}

type SongLengths struct {
	Songs            []types.Beats
	BeatsPerMeasure  int
	CutAfterMeasures MeasureCount
}

func (RandomizedLengths) pmvClipLengths() {}
func (SongLengths) pmvClipLengths()       {}

// MeasureCount is how many measures a song-driven clip spans.
// Implemented by FixedMeasures and RandomMeasures.
type MeasureCount interface {
	Validate() error
	measureCount()
}

type FixedMeasures struct {
	Count int
}

// RandomMeasures draws a fresh count from [Min, Max) for every clip.
type RandomMeasures struct {
	Min int
	Max int
}

func (FixedMeasures) measureCount()  {}
func (RandomMeasures) measureCount() {}

func (o EqualLengthOptions) Validate() error {
	if !positive(o.ClipDuration) {
		return errors.New("clip_duration must be > 0")
	}
	if err := validateDivisors(o.Divisors); err != nil {
		return err
	}
	for _, d := range o.Divisors {
		if o.ClipDuration/d <= 0 && o.MinClipDuration <= 0 {
			return fmt.Errorf("clip_duration / %v is too small to split markers", d)
		}
	}
	return validateBudget(o.MinClipDuration, o.Length)
}

func (o PmvOptions) Validate() error {
	if err := validateBudget(o.MinClipDuration, o.Length); err != nil {
		return err
	}
	return validateLengths(o.Lengths)
}

func validateLengths(l PmvClipLengths) error {
	if l == nil {
		return errors.New("lengths is required")
	}
	if err := l.Validate(); err != nil {
		return fmt.Errorf("lengths: %w", err)
	}
	return nil
}

func (o WeightedRandomOptions) Validate() error {
	if err := validateTarget(o.MinClipDuration, o.Length); err != nil {
		return err
	}
	seen := make(map[string]bool, len(o.Weights))
	var positiveWeights int
	for _, w := range o.Weights {
		if seen[w.Title] {
			return fmt.Errorf("weights: duplicate title %q", w.Title)
		}
		seen[w.Title] = true
		if w.Weight < 0 || math.IsNaN(w.Weight) || math.IsInf(w.Weight, 0) {
			return fmt.Errorf("weights: weight for %q must be a finite number >= 0", w.Title)
		}
		if w.Weight > 0 {
			positiveWeights++
		}
	}
	if positiveWeights == 0 {
		return errors.New("weights: at least one title needs a weight > 0")
	}
	return validateLengths(o.Lengths)
}

func (o RoundRobinOptions) Validate() error {
	if err := validateTarget(o.MinClipDuration, o.Length); err != nil {
		return err
	}
	return validateLengths(o.Lengths)
}

func (NoSplitOptions) Validate() error { return nil }

func (o RandomizedLengths) Validate() error {
	if !positive(o.BaseDuration) {
		return errors.New("base_duration must be > 0")
	}
	return validateDivisors(o.Divisors)
}

// Validate reports ErrNoSongs last so callers still resolving songs can
// check everything else first.
func (o SongLengths) Validate() error {
	if o.BeatsPerMeasure <= 0 {
		return errors.New("beats_per_measure must be > 0")
	}
	if o.CutAfterMeasures == nil {
		return errors.New("cut_after_measures is required")
	}
	if err := o.CutAfterMeasures.Validate(); err != nil {
		return fmt.Errorf("cut_after_measures: %w", err)
	}
	for i, s := range o.Songs {
		for j := 1; j < len(s.Offsets); j++ {
			if s.Offsets[j] < s.Offsets[j-1] {
				return fmt.Errorf("songs[%d]: beat offsets must be ascending", i)
			}
		}
	}
	if len(o.Songs) == 0 {
		return ErrNoSongs
	}
	return nil
}

func (m FixedMeasures) Validate() error {
	if m.Count <= 0 {
		return errors.New("count must be > 0")
	}
	return nil
}

func (m RandomMeasures) Validate() error {
	if m.Min <= 0 {
		return errors.New("min must be > 0")
	}
	if m.Max <= m.Min {
		return fmt.Errorf("max (%d) must be greater than min (%d)", m.Max, m.Min)
	}
	return nil
}

func validateDivisors(divisors []float64) error {
	if len(divisors) == 0 {
		return errors.New("divisors must not be empty")
	}
	for _, d := range divisors {
		if !positive(d) {
			return fmt.Errorf("divisor %v must be > 0", d)
		}
	}
	return nil
}

func validateBudget(minClip float64, length *float64) error {
	if minClip < 0 || math.IsNaN(minClip) || math.IsInf(minClip, 0) {
		return errors.New("min_clip_duration must be >= 0")
	}
	if length != nil && !positive(*length) {
		return errors.New("length must be > 0")
	}
	return nil
}

func validateTarget(minClip, length float64) error {
	return validateBudget(minClip, &length)
}

// positive reports whether v is a finite number > 0.
func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// withDefaultMin returns DefaultMinClipDuration for an unset minimum.
func withDefaultMin(minClip float64) float64 {
	if minClip == 0 {
		return DefaultMinClipDuration
	}
	return minClip
}

// SongLengthsOf returns the song lengths driving o, if any.
func SongLengthsOf(o ClipOptions) (SongLengths, bool) {
	var l PmvClipLengths
	switch o := o.(type) {
	case PmvOptions:
		l = o.Lengths
	case WeightedRandomOptions:
		l = o.Lengths
	case RoundRobinOptions:
		l = o.Lengths
	}
	sl, ok := l.(SongLengths)
	return sl, ok
}

// WithSongs returns o with songs appended to its song lengths. Options not
// driven by songs come back unchanged.
func WithSongs(o ClipOptions, songs []types.Beats) ClipOptions {
	sl, ok := SongLengthsOf(o)
	if !ok {
		return o
	}
	sl.Songs = append(append([]types.Beats(nil), sl.Songs...), songs...)
	switch o := o.(type) {
	case PmvOptions:
		o.Lengths = sl
		return o
	case WeightedRandomOptions:
		o.Lengths = sl
		return o
	case RoundRobinOptions:
		o.Lengths = sl
		return o
	}
	return o
}
