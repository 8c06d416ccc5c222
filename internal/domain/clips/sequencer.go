package clips

import (
	"github.com/forPelevin/clipmash/internal/domain/random"
	"github.com/forPelevin/clipmash/internal/types"
)

// DurationSource yields clip durations until it reports false.
type DurationSource interface {
	Next(r *random.Rand) (float64, bool)
}

// RandomizedSequencer picks one of a fixed set of lengths per call and never
// runs dry unless the set is empty.
type RandomizedSequencer struct {
	lengths []float64
}

func NewRandomizedSequencer(o RandomizedLengths) *RandomizedSequencer {
	lengths := make([]float64, len(o.Divisors))
	for i, d := range o.Divisors {
		lengths[i] = max(o.BaseDuration/d, DefaultMinClipDuration)
	}
	return &RandomizedSequencer{lengths: lengths}
}

func (s *RandomizedSequencer) Next(r *random.Rand) (float64, bool) {
	if len(s.lengths) == 0 {
		return 0, false
	}
	return s.lengths[r.IntN(len(s.lengths))], true
}

// SongSequencer walks beat offsets measure by measure, song after song.
// Once the last beat of a song is reached it moves on to the next one; when
// all songs are used up it stops.
type SongSequencer struct {
	songs           []types.Beats
	beatsPerMeasure int
	measures        MeasureCount

	song int
	beat int
}

func NewSongSequencer(o SongLengths) *SongSequencer {
	if o.BeatsPerMeasure <= 0 {
		panic("clips: beats per measure must be positive")
	}
	if o.CutAfterMeasures == nil {
		panic("clips: measure count is required")
	}
	if err := o.CutAfterMeasures.Validate(); err != nil {
		panic("clips: invalid measure count: " + err.Error())
	}
	return &SongSequencer{
		songs:           o.Songs,
		beatsPerMeasure: o.BeatsPerMeasure,
		measures:        o.CutAfterMeasures,
	}
}

// Position reports the current song and beat index.
func (s *SongSequencer) Position() (song, beat int) { return s.song, s.beat }

func (s *SongSequencer) Next(r *random.Rand) (float64, bool) {
	for s.song < len(s.songs) && len(s.songs[s.song].Offsets) == 0 {
		s.song++
		s.beat = 0
	}
	if s.song >= len(s.songs) {
		return 0, false
	}

	beats := s.songs[s.song].Offsets
	last := len(beats) - 1
	next := min(s.beat+s.beatsPerMeasure*s.measureCount(r), last)
	d := beats[next] - beats[s.beat]

	if next == last {
		s.song++
		s.beat = 0
	} else {
		s.beat = next
	}
	return d, true
}

func (s *SongSequencer) measureCount(r *random.Rand) int {
	switch m := s.measures.(type) {
	case FixedMeasures:
		return m.Count
	case RandomMeasures:
		return r.Range(m.Min, m.Max)
	default:
		panic("clips: unknown measure count")
	}
}

func newDurationSource(l PmvClipLengths) DurationSource {
	switch l := l.(type) {
	case RandomizedLengths:
		return NewRandomizedSequencer(l)
	case SongLengths:
		return NewSongSequencer(l)
	default:
		panic("clips: unknown pmv clip lengths")
	}
}
