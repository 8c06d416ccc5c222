// Package request converts a compilation request document into engine
// options. Documents are YAML; JSON input works too since it is valid YAML.
package request

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/forPelevin/clipmash/internal/domain/clips"
	"github.com/forPelevin/clipmash/internal/types"
)

type Document struct {
	Seed        *string           `yaml:"seed"`
	Order       OrderDoc          `yaml:"order"`
	Merge       bool              `yaml:"merge"`
	MaxDuration *float64          `yaml:"max_duration"`
	Markers     []MarkerDoc       `yaml:"markers"`
	MarkerIDs   []string          `yaml:"marker_ids"`
	SongIDs     []int64           `yaml:"song_ids"`
	Songs       []types.Beats     `yaml:"songs"`
	Videos      map[string]string `yaml:"videos"`
	Clips       ClipsDoc          `yaml:"clips"`
}

type OrderDoc struct {
	Type   string   `yaml:"type"`
	Titles []string `yaml:"titles"`
}

type MarkerDoc struct {
	ID    int64   `yaml:"id"`
	Video string  `yaml:"video"`
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Index int     `yaml:"index"`
	Title string  `yaml:"title"`
	Loops int     `yaml:"loops"`
}

// ClipsDoc is tagged by Type: equal_length, pmv, weighted_random,
// round_robin or no_split.
type ClipsDoc struct {
	Type            string      `yaml:"type"`
	ClipDuration    float64     `yaml:"clip_duration"`
	Divisors        []float64   `yaml:"divisors"`
	MinClipDuration *float64    `yaml:"min_clip_duration"`
	Length          *float64    `yaml:"length"`
	Lengths         *LengthsDoc `yaml:"lengths"`
	Weights         []WeightDoc `yaml:"weights"`
}

type WeightDoc struct {
	Title  string  `yaml:"title"`
	Weight float64 `yaml:"weight"`
}

// LengthsDoc is tagged by Type: randomized or songs.
type LengthsDoc struct {
	Type             string       `yaml:"type"`
	BaseDuration     float64      `yaml:"base_duration"`
	Divisors         []float64    `yaml:"divisors"`
	BeatsPerMeasure  int          `yaml:"beats_per_measure"`
	CutAfterMeasures *MeasuresDoc `yaml:"cut_after_measures"`
}

// MeasuresDoc is tagged by Type: fixed or random.
type MeasuresDoc struct {
	Type  string `yaml:"type"`
	Count int    `yaml:"count"`
	Min   int    `yaml:"min"`
	Max   int    `yaml:"max"`
}

// Request is a decoded document in engine terms. Markers and songs given by
// id still have to be resolved through the library.
type Request struct {
	Arrange   clips.ArrangeOptions
	MarkerIDs []types.MarkerID
	SongIDs   []int64
	Videos    map[types.VideoID]string
}

// NeedsSongs reports whether the clip options are driven by song beats.
func (r Request) NeedsSongs() bool {
	_, ok := clips.SongLengthsOf(r.Arrange.Clips)
	return ok
}

// WithSongs appends songs to song-driven clip options. Other options are
// returned unchanged.
func (r Request) WithSongs(songs []types.Beats) Request {
	r.Arrange.Clips = clips.WithSongs(r.Arrange.Clips, songs)
	return r
}

func LoadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open request: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads one document and rejects unknown fields.
func Decode(r io.Reader) (Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Document{}, errors.New("parse request: empty document")
		}
		return Document{}, fmt.Errorf("parse request: %w", err)
	}
	return doc, nil
}

// Convert validates the document and builds engine options.
func (d Document) Convert() (Request, error) {
	var out Request

	markers, err := convertMarkers(d.Markers)
	if err != nil {
		return Request{}, err
	}
	for i, s := range d.MarkerIDs {
		id, err := ParseMarkerID(s)
		if err != nil {
			return Request{}, fmt.Errorf("marker_ids[%d]: %w", i, err)
		}
		out.MarkerIDs = append(out.MarkerIDs, id)
	}
	if len(markers) == 0 && len(out.MarkerIDs) == 0 {
		return Request{}, errors.New("markers: at least one marker or marker id is required")
	}
	out.SongIDs = append(out.SongIDs, d.SongIDs...)

	videos, err := convertVideos(d.Videos)
	if err != nil {
		return Request{}, err
	}
	out.Videos = videos

	opts, err := d.Clips.convert(d.Songs, len(d.SongIDs) > 0)
	if err != nil {
		return Request{}, fmt.Errorf("clips.%w", err)
	}
	out.Arrange.Clips = opts
	if (len(d.Songs) > 0 || len(d.SongIDs) > 0) && !out.NeedsSongs() {
		return Request{}, errors.New("songs: only clips with song lengths use songs")
	}

	order := clips.Order{Kind: clips.OrderKind(strings.TrimSpace(d.Order.Type)), Titles: d.Order.Titles}
	if order.Kind == "" {
		order.Kind = clips.OrderScene
	}

	out.Arrange = clips.ArrangeOptions{
		Markers:     markers,
		Clips:       opts,
		Order:       order,
		Seed:        d.Seed,
		MaxDuration: d.MaxDuration,
		Merge:       d.Merge,
	}
	if err := out.Arrange.Order.Validate(); err != nil {
		return Request{}, fmt.Errorf("order.type: %w", err)
	}
	if d.MaxDuration != nil && *d.MaxDuration <= 0 {
		return Request{}, errors.New("max_duration: must be > 0")
	}
	return out, nil
}

func (c ClipsDoc) convert(songs []types.Beats, songsPending bool) (clips.ClipOptions, error) {
	minClip := clips.DefaultMinClipDuration
	if c.MinClipDuration != nil {
		minClip = *c.MinClipDuration
	}

	var opts clips.ClipOptions
	switch c.Type {
	case "equal_length":
		opts = clips.EqualLengthOptions{
			ClipDuration:    c.ClipDuration,
			Divisors:        c.Divisors,
			MinClipDuration: minClip,
			Length:          c.Length,
		}
	case "pmv":
		lengths, err := c.lengths(songs)
		if err != nil {
			return nil, err
		}
		opts = clips.PmvOptions{Lengths: lengths, MinClipDuration: minClip, Length: c.Length}
	case "weighted_random", "round_robin":
		lengths, err := c.lengths(songs)
		if err != nil {
			return nil, err
		}
		if c.Length == nil {
			return nil, fmt.Errorf("length: required for %s clips", c.Type)
		}
		if c.Type == "round_robin" {
			opts = clips.RoundRobinOptions{Lengths: lengths, MinClipDuration: minClip, Length: *c.Length}
			break
		}
		weights := make([]clips.TitleWeight, 0, len(c.Weights))
		for _, w := range c.Weights {
			weights = append(weights, clips.TitleWeight{Title: w.Title, Weight: w.Weight})
		}
		opts = clips.WeightedRandomOptions{Weights: weights, Lengths: lengths, MinClipDuration: minClip, Length: *c.Length}
	case "no_split":
		opts = clips.NoSplitOptions{}
	case "":
		return nil, errors.New("type: required")
	default:
		return nil, fmt.Errorf("type: unknown %q", c.Type)
	}
	if err := opts.Validate(); err != nil && !(songsPending && errors.Is(err, clips.ErrNoSongs)) {
		return nil, fmt.Errorf("%s: %w", c.Type, err)
	}
	return opts, nil
}

func (c ClipsDoc) lengths(songs []types.Beats) (clips.PmvClipLengths, error) {
	if c.Lengths == nil {
		return nil, fmt.Errorf("lengths: required for %s clips", c.Type)
	}
	lengths, err := c.Lengths.convert(songs)
	if err != nil {
		return nil, fmt.Errorf("lengths.%w", err)
	}
	return lengths, nil
}

func (l LengthsDoc) convert(songs []types.Beats) (clips.PmvClipLengths, error) {
	switch l.Type {
	case "randomized":
		return clips.RandomizedLengths{BaseDuration: l.BaseDuration, Divisors: l.Divisors}, nil
	case "songs":
		if l.CutAfterMeasures == nil {
			return nil, errors.New("cut_after_measures: required")
		}
		m, err := l.CutAfterMeasures.convert()
		if err != nil {
			return nil, fmt.Errorf("cut_after_measures.%w", err)
		}
		return clips.SongLengths{Songs: songs, BeatsPerMeasure: l.BeatsPerMeasure, CutAfterMeasures: m}, nil
	case "":
		return nil, errors.New("type: required")
	default:
		return nil, fmt.Errorf("type: unknown %q", l.Type)
	}
}

func (m MeasuresDoc) convert() (clips.MeasureCount, error) {
	switch m.Type {
	case "fixed":
		return clips.FixedMeasures{Count: m.Count}, nil
	case "random":
		return clips.RandomMeasures{Min: m.Min, Max: m.Max}, nil
	case "":
		return nil, errors.New("type: required")
	default:
		return nil, fmt.Errorf("type: unknown %q", m.Type)
	}
}

func convertMarkers(in []MarkerDoc) ([]types.Marker, error) {
	out := make([]types.Marker, 0, len(in))
	for i, m := range in {
		vid, err := ParseVideoID(m.Video)
		if err != nil {
			return nil, fmt.Errorf("markers[%d].video: %w", i, err)
		}
		if m.End <= m.Start {
			return nil, fmt.Errorf("markers[%d]: end (%v) must be after start (%v)", i, m.End, m.Start)
		}
		out = append(out, types.Marker{
			ID:               types.MarkerID{Source: vid.Source, ID: m.ID},
			VideoID:          vid,
			Start:            m.Start,
			End:              m.End,
			IndexWithinVideo: m.Index,
			Title:            m.Title,
			Loops:            max(m.Loops, 1),
		})
	}
	return out, nil
}

func convertVideos(in map[string]string) (map[types.VideoID]string, error) {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[types.VideoID]string, len(in))
	for _, k := range keys {
		id, err := ParseVideoID(k)
		if err != nil {
			return nil, fmt.Errorf("videos[%q]: %w", k, err)
		}
		if strings.TrimSpace(in[k]) == "" {
			return nil, fmt.Errorf("videos[%q]: path is empty", k)
		}
		out[id] = in[k]
	}
	return out, nil
}

// ParseVideoID parses "source:id". A bare id means a local folder video.
func ParseVideoID(s string) (types.VideoID, error) {
	src, id, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		src, id = string(types.SourceFolder), src
	}
	v := types.VideoID{Source: types.VideoSource(src), ID: id}
	if !v.Source.Valid() {
		return types.VideoID{}, fmt.Errorf("unknown video source %q", src)
	}
	if id == "" {
		return types.VideoID{}, errors.New("empty video id")
	}
	return v, nil
}

// ParseMarkerID parses "source:number". A bare number means a local folder
// marker.
func ParseMarkerID(s string) (types.MarkerID, error) {
	src, raw, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		src, raw = string(types.SourceFolder), src
	}
	if !types.VideoSource(src).Valid() {
		return types.MarkerID{}, fmt.Errorf("unknown marker source %q", src)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return types.MarkerID{}, fmt.Errorf("invalid marker id %q", raw)
	}
	return types.MarkerID{Source: types.VideoSource(src), ID: n}, nil
}
