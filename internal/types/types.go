package types

import "fmt"

// VideoSource tags where a video came from.
type VideoSource string

const (
	SourceFolder   VideoSource = "folder"
	SourceDownload VideoSource = "download"
	SourceStash    VideoSource = "stash"
)

func (s VideoSource) rank() int {
	switch s {
	case SourceFolder:
		return 0
	case SourceDownload:
		return 1
	case SourceStash:
		return 2
	default:
		return 3
	}
}

func (s VideoSource) Valid() bool { return s.rank() < 3 }

type VideoID struct {
	Source VideoSource `json:"source" yaml:"source"`
	ID     string      `json:"id" yaml:"id"`
}

// Compare orders video ids by source, then by id.
func (v VideoID) Compare(o VideoID) int {
	if a, b := v.Source.rank(), o.Source.rank(); a != b {
		if a < b {
			return -1
		}
		return 1
	}
	switch {
	case v.ID < o.ID:
		return -1
	case v.ID > o.ID:
		return 1
	}
	return 0
}

func (v VideoID) String() string { return fmt.Sprintf("%s:%s", v.Source, v.ID) }

type MarkerID struct {
	Source VideoSource `json:"source" yaml:"source"`
	ID     int64       `json:"id" yaml:"id"`
}

func (m MarkerID) String() string { return fmt.Sprintf("%s:%d", m.Source, m.ID) }

type Marker struct {
	ID               MarkerID `json:"id" yaml:"id"`
	VideoID          VideoID  `json:"video_id" yaml:"video_id"`
	Start            float64  `json:"start" yaml:"start"`
	End              float64  `json:"end" yaml:"end"`
	IndexWithinVideo int      `json:"index_within_video" yaml:"index_within_video"`
	Title            string   `json:"title" yaml:"title"`
	Loops            int      `json:"loops" yaml:"loops"`
}

func (m Marker) Duration() float64 { return m.End - m.Start }

// Range is a [start, end) window in seconds inside a source video.
type Range [2]float64

func (r Range) Start() float64    { return r[0] }
func (r Range) End() float64      { return r[1] }
func (r Range) Duration() float64 { return r[1] - r[0] }

type Clip struct {
	Source            VideoSource `json:"source" yaml:"source"`
	VideoID           VideoID     `json:"video_id" yaml:"video_id"`
	MarkerID          MarkerID    `json:"marker_id" yaml:"marker_id"`
	Range             Range       `json:"range" yaml:"range,flow"`
	IndexWithinMarker int         `json:"index_within_marker" yaml:"index_within_marker"`
	IndexWithinVideo  int         `json:"index_within_video" yaml:"index_within_video"`
	MarkerTitle       string      `json:"marker_title" yaml:"marker_title"`
}

func (c Clip) Duration() float64 { return c.Range.Duration() }

// TotalDuration sums clip durations in order.
func TotalDuration(clips []Clip) float64 {
	var total float64
	for _, c := range clips {
		total += c.Duration()
	}
	return total
}

// Beats are detected onsets of one song, ascending, plus the track length.
type Beats struct {
	Offsets []float64 `json:"offsets" yaml:"offsets"`
	Length  float64   `json:"length" yaml:"length"`
}

type Manifest struct {
	ID            string         `json:"id" yaml:"id"`
	Seed          *string        `json:"seed,omitempty" yaml:"seed,omitempty"`
	Picker        string         `json:"picker" yaml:"picker"`
	Order         string         `json:"order" yaml:"order"`
	TotalDuration float64        `json:"total_duration" yaml:"total_duration"`
	BeatOffsets   []float64      `json:"beat_offsets,omitempty" yaml:"beat_offsets,omitempty,flow"`
	Output        string         `json:"output,omitempty" yaml:"output,omitempty"`
	Clips         []ManifestClip `json:"clips" yaml:"clips"`
}

type ManifestClip struct {
	Index       int     `json:"index" yaml:"index"`
	VideoID     string  `json:"video_id" yaml:"video_id"`
	MarkerID    string  `json:"marker_id" yaml:"marker_id"`
	StartSec    float64 `json:"start_sec" yaml:"start_sec"`
	EndSec      float64 `json:"end_sec" yaml:"end_sec"`
	DurationSec float64 `json:"duration_sec" yaml:"duration_sec"`
	MarkerTitle string  `json:"marker_title" yaml:"marker_title"`
	File        string  `json:"file,omitempty" yaml:"file,omitempty"`
}
