package request

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/forPelevin/clipmash/internal/domain/clips"
	"github.com/forPelevin/clipmash/internal/types"
)

const equalLengthDoc = `
seed: abc
order:
  type: fixed
  titles: [Intro, Outro]
max_duration: 120
merge: true
markers:
  - id: 1
    video: folder:beach
    start: 0
    end: 40
    index: 2
    title: Intro
  - id: 7
    video: stash:99
    start: 10
    end: 30
    title: Outro
    loops: 3
videos:
  folder:beach: /videos/beach.mp4
clips:
  type: equal_length
  clip_duration: 20
  divisors: [1, 2, 4]
`

func TestConvert_EqualLength(t *testing.T) {
	doc, err := Decode(strings.NewReader(equalLengthDoc))
	if err != nil {
		t.Fatal(err)
	}
	req, err := doc.Convert()
	if err != nil {
		t.Fatal(err)
	}
	a := req.Arrange
	if a.Seed == nil || *a.Seed != "abc" {
		t.Fatalf("seed not carried: %v", a.Seed)
	}
	if a.Order.Kind != clips.OrderFixed || !reflect.DeepEqual(a.Order.Titles, []string{"Intro", "Outro"}) {
		t.Fatalf("unexpected order: %+v", a.Order)
	}
	if a.MaxDuration == nil || *a.MaxDuration != 120 || !a.Merge {
		t.Fatalf("unexpected budget/merge: %v %v", a.MaxDuration, a.Merge)
	}
	want := clips.EqualLengthOptions{ClipDuration: 20, Divisors: []float64{1, 2, 4}, MinClipDuration: clips.DefaultMinClipDuration}
	if !reflect.DeepEqual(a.Clips, want) {
		t.Fatalf("clips = %+v, want %+v", a.Clips, want)
	}
	if len(a.Markers) != 2 {
		t.Fatalf("got %d markers", len(a.Markers))
	}
	m := a.Markers[1]
	if m.VideoID != (types.VideoID{Source: types.SourceStash, ID: "99"}) || m.ID.Source != types.SourceStash || m.Loops != 3 {
		t.Fatalf("unexpected marker: %+v", m)
	}
	if a.Markers[0].Loops != 1 || a.Markers[0].IndexWithinVideo != 2 {
		t.Fatalf("unexpected marker defaults: %+v", a.Markers[0])
	}
	if req.Videos[types.VideoID{Source: types.SourceFolder, ID: "beach"}] != "/videos/beach.mp4" {
		t.Fatalf("videos not converted: %v", req.Videos)
	}
}

func TestConvert_PmvSongsFromLibrary(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{
  "marker_ids": ["folder:3", "12"],
  "song_ids": [5],
  "songs": [{"offsets": [0, 1, 2], "length": 3}],
  "clips": {
    "type": "pmv",
    "min_clip_duration": 0.5,
    "lengths": {
      "type": "songs",
      "beats_per_measure": 4,
      "cut_after_measures": {"type": "random", "min": 1, "max": 3}
    }
  }
}`))
	if err != nil {
		t.Fatal(err)
	}
	req, err := doc.Convert()
	if err != nil {
		t.Fatal(err)
	}
	if !req.NeedsSongs() {
		t.Fatalf("expected song-driven request")
	}
	wantIDs := []types.MarkerID{{Source: types.SourceFolder, ID: 3}, {Source: types.SourceFolder, ID: 12}}
	if !reflect.DeepEqual(req.MarkerIDs, wantIDs) || !reflect.DeepEqual(req.SongIDs, []int64{5}) {
		t.Fatalf("ids not converted: %v %v", req.MarkerIDs, req.SongIDs)
	}
	if req.Arrange.Order.Kind != clips.OrderScene {
		t.Fatalf("default order = %q", req.Arrange.Order.Kind)
	}

	req = req.WithSongs([]types.Beats{{Offsets: []float64{0, 2}, Length: 2}})
	pmv := req.Arrange.Clips.(clips.PmvOptions)
	sl := pmv.Lengths.(clips.SongLengths)
	if len(sl.Songs) != 2 || sl.Songs[1].Length != 2 {
		t.Fatalf("songs not appended: %+v", sl.Songs)
	}
	if pmv.MinClipDuration != 0.5 {
		t.Fatalf("min clip duration = %v", pmv.MinClipDuration)
	}
	if sl.CutAfterMeasures != (clips.RandomMeasures{Min: 1, Max: 3}) {
		t.Fatalf("measures = %+v", sl.CutAfterMeasures)
	}
	if err := req.Arrange.Validate(); err != nil {
		t.Fatalf("resolved request should validate: %v", err)
	}
}

func TestConvert_Errors(t *testing.T) {
	base := "markers: [{id: 1, video: v, start: 0, end: 10}]\n"
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "unknown field", doc: base + "clips: {type: no_split}\nbogus: 1\n", want: "bogus"},
		{name: "unknown clip type", doc: base + "clips: {type: foo}\n", want: `clips.type: unknown "foo"`},
		{name: "missing clip type", doc: base, want: "clips.type: required"},
		{name: "empty divisors", doc: base + "clips: {type: equal_length, clip_duration: 10}\n", want: "clips.equal_length: divisors must not be empty"},
		{name: "missing lengths", doc: base + "clips: {type: pmv}\n", want: "clips.lengths: required"},
		{name: "unknown lengths", doc: base + "clips: {type: pmv, lengths: {type: x}}\n", want: `clips.lengths.type: unknown "x"`},
		{name: "songs missing", doc: base + "clips: {type: pmv, lengths: {type: songs, beats_per_measure: 4, cut_after_measures: {type: fixed, count: 1}}}\n", want: "at least one song"},
		{name: "bad measures", doc: base + "songs: [{offsets: [0], length: 1}]\nclips: {type: pmv, lengths: {type: songs, beats_per_measure: 4, cut_after_measures: {type: random, min: 3, max: 3}}}\n", want: "max (3)"},
		{name: "songs with wrong picker", doc: base + "songs: [{offsets: [0], length: 1}]\nclips: {type: no_split}\n", want: "songs:"},
		{name: "bad order", doc: base + "order: {type: sideways}\nclips: {type: no_split}\n", want: "order.type"},
		{name: "fixed order without titles", doc: base + "order: {type: fixed}\nclips: {type: no_split}\n", want: "order.type"},
		{name: "no markers", doc: "clips: {type: no_split}\n", want: "markers:"},
		{name: "inverted marker", doc: "markers: [{id: 1, video: v, start: 5, end: 1}]\nclips: {type: no_split}\n", want: "markers[0]"},
		{name: "bad video source", doc: "markers: [{id: 1, video: 'ftp:v', start: 0, end: 1}]\nclips: {type: no_split}\n", want: "markers[0].video"},
		{name: "bad marker id", doc: "marker_ids: ['folder:x']\nclips: {type: no_split}\n", want: "marker_ids[0]"},
		{name: "bad max duration", doc: base + "max_duration: -1\nclips: {type: no_split}\n", want: "max_duration"},
		{name: "weighted without length", doc: base + "clips: {type: weighted_random, weights: [{title: A, weight: 1}], lengths: {type: randomized, base_duration: 10, divisors: [2]}}\n", want: "clips.length: required for weighted_random clips"},
		{name: "weighted without weights", doc: base + "clips: {type: weighted_random, length: 30, lengths: {type: randomized, base_duration: 10, divisors: [2]}}\n", want: "clips.weighted_random: weights:"},
		{name: "round robin without lengths", doc: base + "clips: {type: round_robin, length: 30}\n", want: "clips.lengths: required for round_robin clips"},
		{name: "empty video path", doc: base + "videos: {v: ''}\nclips: {type: no_split}\n", want: "videos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode(strings.NewReader(tt.doc))
			if err == nil {
				_, err = doc.Convert()
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestConvert_WeightedAndRoundRobin(t *testing.T) {
	doc, err := Decode(strings.NewReader(`
markers: [{id: 1, video: v, start: 0, end: 60, title: Intro}]
clips:
  type: weighted_random
  length: 45
  weights:
    - {title: Intro, weight: 2}
    - {title: Outro, weight: 0}
  lengths: {type: randomized, base_duration: 20, divisors: [2, 4]}
`))
	if err != nil {
		t.Fatal(err)
	}
	req, err := doc.Convert()
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	want := clips.WeightedRandomOptions{
		Weights:         []clips.TitleWeight{{Title: "Intro", Weight: 2}, {Title: "Outro", Weight: 0}},
		Lengths:         clips.RandomizedLengths{BaseDuration: 20, Divisors: []float64{2, 4}},
		MinClipDuration: clips.DefaultMinClipDuration,
		Length:          45,
	}
	if !reflect.DeepEqual(req.Arrange.Clips, want) {
		t.Fatalf("clips = %+v, want %+v", req.Arrange.Clips, want)
	}

	doc, err = Decode(strings.NewReader(`
markers: [{id: 1, video: v, start: 0, end: 60}]
song_ids: [4]
clips:
  type: round_robin
  length: 30
  lengths: {type: songs, beats_per_measure: 4, cut_after_measures: {type: fixed, count: 2}}
`))
	if err != nil {
		t.Fatal(err)
	}
	req, err = doc.Convert()
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !req.NeedsSongs() {
		t.Fatalf("round robin over songs should need songs")
	}
	req = req.WithSongs([]types.Beats{{Offsets: []float64{0, 1}, Length: 2}})
	rr := req.Arrange.Clips.(clips.RoundRobinOptions)
	if sl := rr.Lengths.(clips.SongLengths); len(sl.Songs) != 1 || rr.Length != 30 {
		t.Fatalf("unexpected options: %+v", rr)
	}
	if err := req.Arrange.Validate(); err != nil {
		t.Fatalf("resolved request should validate: %v", err)
	}
}

func TestDecode_Empty(t *testing.T) {
	if _, err := Decode(strings.NewReader("")); err == nil {
		t.Fatalf("expected error for empty document")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "req.yaml")
	if err := os.WriteFile(path, []byte(equalLengthDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Clips.Type != "equal_length" {
		t.Fatalf("unexpected doc: %+v", doc.Clips)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseVideoID(t *testing.T) {
	tests := []struct {
		in      string
		want    types.VideoID
		wantErr bool
	}{
		{in: "clip.mp4", want: types.VideoID{Source: types.SourceFolder, ID: "clip.mp4"}},
		{in: "download:abc", want: types.VideoID{Source: types.SourceDownload, ID: "abc"}},
		{in: "stash:1:2", want: types.VideoID{Source: types.SourceStash, ID: "1:2"}},
		{in: "stash:", wantErr: true},
		{in: "web:x", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseVideoID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseVideoID(%q) err = %v", tt.in, err)
		}
		if !tt.wantErr && got != tt.want {
			t.Fatalf("ParseVideoID(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
