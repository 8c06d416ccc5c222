package clips

import (
	"reflect"
	"testing"
	"time"

	"github.com/forPelevin/clipmash/internal/domain/random"
	"github.com/forPelevin/clipmash/internal/types"
)

func marker(id int64, start, end float64, index int, video string) types.Marker {
	return types.Marker{
		ID:               types.MarkerID{Source: types.SourceFolder, ID: id},
		VideoID:          types.VideoID{Source: types.SourceFolder, ID: video},
		Start:            start,
		End:              end,
		IndexWithinVideo: index,
		Title:            "A",
	}
}

func ranges(clips []types.Clip) []types.Range {
	out := make([]types.Range, len(clips))
	for i, c := range clips {
		out[i] = c.Range
	}
	return out
}

func ptr(v float64) *float64 { return &v }

func TestEqualLengthPicker_SingleDivisor(t *testing.T) {
	p := EqualLengthPicker{Options: EqualLengthOptions{ClipDuration: 10, Divisors: []float64{2}, MinClipDuration: 1.5}}
	got := p.Pick([]types.Marker{marker(1, 0, 10, 0, "v")}, random.New(random.DefaultSeed))
	want := []types.Range{{0, 5}, {5, 10}}
	if !reflect.DeepEqual(ranges(got), want) {
		t.Fatalf("ranges = %v, want %v", ranges(got), want)
	}
	for i, c := range got {
		if c.IndexWithinMarker != i {
			t.Fatalf("clip %d has index_within_marker %d", i, c.IndexWithinMarker)
		}
		if c.MarkerTitle != "A" || c.Source != types.SourceFolder {
			t.Fatalf("marker fields not copied: %+v", c)
		}
	}
}

func TestEqualLengthPicker_SeedString(t *testing.T) {
	seed := "abc"
	p := EqualLengthPicker{Options: EqualLengthOptions{ClipDuration: 20, Divisors: []float64{1, 2, 4}, MinClipDuration: 1.5}}
	got := p.Pick([]types.Marker{marker(1, 0, 40, 0, "v")}, random.Seeded(&seed))
	want := []types.Range{{0, 5}, {5, 10}, {10, 20}, {20, 40}}
	if !reflect.DeepEqual(ranges(got), want) {
		t.Fatalf("ranges = %v, want %v", ranges(got), want)
	}
}

func TestEqualLengthPicker_Budget(t *testing.T) {
	opts := EqualLengthOptions{ClipDuration: 10, Divisors: []float64{1}, MinClipDuration: 1.5, Length: ptr(25)}
	tests := []struct {
		name    string
		markers []types.Marker
		want    []types.Range
	}{
		{
			name:    "stops at marker boundary",
			markers: []types.Marker{marker(1, 0, 20, 0, "v"), marker(2, 0, 20, 1, "v"), marker(3, 0, 20, 2, "v")},
			want:    []types.Range{{0, 10}, {10, 20}, {0, 5}},
		},
		{
			name:    "single marker over budget",
			markers: []types.Marker{marker(1, 0, 40, 0, "v")},
			want:    []types.Range{{0, 10}, {10, 20}, {20, 25}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EqualLengthPicker{Options: opts}.Pick(tt.markers, random.New(1))
			if !reflect.DeepEqual(ranges(got), tt.want) {
				t.Fatalf("ranges = %v, want %v", ranges(got), tt.want)
			}
			if total := types.TotalDuration(got); total > *opts.Length {
				t.Fatalf("total %v exceeds budget", total)
			}
		})
	}
}

func TestEqualLengthPicker_DropsShortPieces(t *testing.T) {
	p := EqualLengthPicker{Options: EqualLengthOptions{ClipDuration: 10, Divisors: []float64{2}, MinClipDuration: 1.5}}
	tests := []struct {
		name   string
		marker types.Marker
		want   int
	}{
		{name: "marker shorter than minimum", marker: marker(1, 0, 1.4, 0, "v"), want: 0},
		{name: "short tail", marker: marker(1, 0, 11.2, 0, "v"), want: 2},
		{name: "inverted range", marker: marker(1, 10, 5, 0, "v"), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Pick([]types.Marker{tt.marker}, random.New(1))
			if len(got) != tt.want {
				t.Fatalf("got %d clips (%v), want %d", len(got), ranges(got), tt.want)
			}
		})
	}
}

func TestPickers_MinimumDurationAndDeterminism(t *testing.T) {
	markers := []types.Marker{
		marker(1, 0, 37.3, 0, "a"),
		marker(2, 50, 51, 1, "a"),
		marker(3, 3.2, 90.1, 0, "b"),
	}
	pickers := []Picker{
		EqualLengthPicker{Options: EqualLengthOptions{ClipDuration: 12, Divisors: []float64{1, 2, 3, 4, 8}, MinClipDuration: 1.5}},
		PmvPicker{Options: PmvOptions{Lengths: RandomizedLengths{BaseDuration: 20, Divisors: []float64{2, 3, 4}}, MinClipDuration: 1.5}},
	}
	for _, p := range pickers {
		t.Run(p.Name(), func(t *testing.T) {
			for seed := uint64(0); seed < 20; seed++ {
				a := p.Pick(markers, random.New(seed))
				b := p.Pick(markers, random.New(seed))
				if !reflect.DeepEqual(a, b) {
					t.Fatalf("seed %d: output differs between runs", seed)
				}
				for _, c := range a {
					if c.Duration() <= 1.5 {
						t.Fatalf("seed %d: clip %v not above minimum", seed, c.Range)
					}
				}
			}
		})
	}
}

func TestEqualLengthPicker_PanicsWithoutDivisors(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	EqualLengthPicker{Options: EqualLengthOptions{ClipDuration: 10}}.Pick([]types.Marker{marker(1, 0, 10, 0, "v")}, random.New(1))
}

func TestPmvPicker_Randomized(t *testing.T) {
	p := PmvPicker{Options: PmvOptions{
		Lengths:         RandomizedLengths{BaseDuration: 30, Divisors: []float64{2, 3, 4}},
		MinClipDuration: 1.5,
	}}
	got := p.Pick([]types.Marker{marker(1, 0, 60, 0, "v")}, random.New(random.DefaultSeed))
	want := []types.Range{{0, 10}, {10, 20}, {20, 27.5}, {27.5, 42.5}, {42.5, 52.5}, {52.5, 60}}
	if !reflect.DeepEqual(ranges(got), want) {
		t.Fatalf("ranges = %v, want %v", ranges(got), want)
	}
}

func TestPmvPicker_SongsStopWhenBeatsRunOut(t *testing.T) {
	p := PmvPicker{Options: PmvOptions{
		Lengths: SongLengths{
			Songs:            []types.Beats{integerBeats(10), integerBeats(10)},
			BeatsPerMeasure:  4,
			CutAfterMeasures: FixedMeasures{Count: 1},
		},
		MinClipDuration: 1.5,
	}}
	got := p.Pick([]types.Marker{marker(1, 0, 100, 0, "v"), marker(2, 0, 100, 1, "v")}, random.New(1))
	want := []types.Range{{0, 4}, {4, 8}, {9, 13}, {13, 17}}
	if !reflect.DeepEqual(ranges(got), want) {
		t.Fatalf("ranges = %v, want %v", ranges(got), want)
	}
	if got[3].IndexWithinMarker != 3 {
		t.Fatalf("index_within_marker = %d, want 3", got[3].IndexWithinMarker)
	}
}

func TestPmvPicker_Budget(t *testing.T) {
	p := PmvPicker{Options: PmvOptions{
		Lengths:         RandomizedLengths{BaseDuration: 30, Divisors: []float64{2, 3, 4}},
		MinClipDuration: 1.5,
		Length:          ptr(33),
	}}
	got := p.Pick([]types.Marker{marker(1, 0, 60, 0, "v")}, random.New(random.DefaultSeed))
	want := []types.Range{{0, 10}, {10, 20}, {20, 27.5}, {27.5, 33}}
	if !reflect.DeepEqual(ranges(got), want) {
		t.Fatalf("ranges = %v, want %v", ranges(got), want)
	}
}

func TestNoSplitPicker(t *testing.T) {
	got := NoSplitPicker{}.Pick([]types.Marker{
		marker(1, 1, 15, 0, "v1"),
		marker(2, 9, 3, 1, "v1"),
		marker(3, 2, 4, 0, "v2"),
	}, nil)
	want := []types.Range{{1, 15}, {2, 4}}
	if !reflect.DeepEqual(ranges(got), want) {
		t.Fatalf("ranges = %v, want %v", ranges(got), want)
	}
}

func TestNewPicker(t *testing.T) {
	tests := []struct {
		opts ClipOptions
		want string
	}{
		{opts: EqualLengthOptions{ClipDuration: 10, Divisors: []float64{2}}, want: "equal_length"},
		{opts: PmvOptions{Lengths: RandomizedLengths{BaseDuration: 10, Divisors: []float64{2}}}, want: "pmv"},
		{opts: NoSplitOptions{}, want: "no_split"},
		{opts: WeightedRandomOptions{
			Weights: []TitleWeight{{Title: "A", Weight: 1}},
			Lengths: RandomizedLengths{BaseDuration: 10, Divisors: []float64{2}},
			Length:  30,
		}, want: "weighted_random"},
		{opts: RoundRobinOptions{Lengths: RandomizedLengths{BaseDuration: 10, Divisors: []float64{2}}, Length: 30}, want: "round_robin"},
	}
	for _, tt := range tests {
		if got := NewPicker(tt.opts).Name(); got != tt.want {
			t.Fatalf("NewPicker(%T) = %q, want %q", tt.opts, got, tt.want)
		}
	}
}

func TestNewPicker_DefaultsMinimumDuration(t *testing.T) {
	lengths := RandomizedLengths{BaseDuration: 10, Divisors: []float64{2}}
	tests := []struct {
		opts ClipOptions
		min  func(Picker) float64
	}{
		{opts: EqualLengthOptions{ClipDuration: 10, Divisors: []float64{2}}, min: func(p Picker) float64 { return p.(EqualLengthPicker).Options.MinClipDuration }},
		{opts: PmvOptions{Lengths: lengths}, min: func(p Picker) float64 { return p.(PmvPicker).Options.MinClipDuration }},
		{opts: WeightedRandomOptions{Weights: []TitleWeight{{Title: "A", Weight: 1}}, Lengths: lengths, Length: 30}, min: func(p Picker) float64 { return p.(WeightedRandomPicker).Options.MinClipDuration }},
		{opts: RoundRobinOptions{Lengths: lengths, Length: 30}, min: func(p Picker) float64 { return p.(RoundRobinPicker).Options.MinClipDuration }},
	}
	for _, tt := range tests {
		if got := tt.min(NewPicker(tt.opts)); got != DefaultMinClipDuration {
			t.Fatalf("NewPicker(%T) min clip duration = %v, want %v", tt.opts, got, DefaultMinClipDuration)
		}
	}

	p := NewPicker(EqualLengthOptions{ClipDuration: 10, Divisors: []float64{2}, MinClipDuration: 3})
	if got := p.(EqualLengthPicker).Options.MinClipDuration; got != 3 {
		t.Fatalf("explicit minimum replaced: %v", got)
	}
}

func TestEqualLengthPicker_TinyPiecesTerminate(t *testing.T) {
	opts := EqualLengthOptions{ClipDuration: 1, Divisors: []float64{1e20}}
	if err := opts.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	done := make(chan []types.Clip, 1)
	go func() {
		done <- EqualLengthPicker{Options: opts}.Pick([]types.Marker{marker(1, 100, 200, 0, "v")}, random.New(1))
	}()
	select {
	case got := <-done:
		if len(got) != 0 {
			t.Fatalf("expected no clips, got %v", ranges(got))
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("pick did not return")
	}
}
