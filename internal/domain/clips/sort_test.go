package clips

import (
	"reflect"
	"testing"

	"github.com/forPelevin/clipmash/internal/domain/random"
	"github.com/forPelevin/clipmash/internal/types"
)

func clip(start, end float64, iv, im int, title string) types.Clip {
	return types.Clip{
		Source:            types.SourceFolder,
		VideoID:           types.VideoID{Source: types.SourceFolder, ID: "video"},
		Range:             types.Range{start, end},
		IndexWithinVideo:  iv,
		IndexWithinMarker: im,
		MarkerTitle:       title,
	}
}

func TestSceneOrderSorter_RandomTiebreak(t *testing.T) {
	in := []types.Clip{clip(0, 9, 0, 0, "A"), clip(1, 12, 0, 0, "A")}
	got := SceneOrderSorter{}.Sort(in, random.New(random.DefaultSeed))
	want := []types.Range{{1, 12}, {0, 9}}
	if !reflect.DeepEqual(ranges(got), want) {
		t.Fatalf("ranges = %v, want %v", ranges(got), want)
	}
	if in[0].Range != (types.Range{0, 9}) {
		t.Fatalf("input was modified")
	}
}

func TestSceneOrderSorter_KeysBeforeTiebreak(t *testing.T) {
	in := []types.Clip{
		clip(30, 40, 1, 1, "A"),
		clip(0, 10, 0, 0, "A"),
		clip(20, 30, 1, 0, "A"),
		clip(10, 20, 0, 1, "A"),
	}
	for seed := uint64(0); seed < 10; seed++ {
		got := SceneOrderSorter{}.Sort(in, random.New(seed))
		want := []types.Range{{0, 10}, {10, 20}, {20, 30}, {30, 40}}
		if !reflect.DeepEqual(ranges(got), want) {
			t.Fatalf("seed %d: ranges = %v, want %v", seed, ranges(got), want)
		}
	}
}

func TestFixedOrderSorter(t *testing.T) {
	in := []types.Clip{
		clip(0, 5, 0, 0, "B"),
		clip(5, 10, 0, 1, "B"),
		clip(0, 4, 0, 0, "A"),
		clip(9, 9.5, 1, 0, "Z"),
		clip(20, 24, 1, 0, "A"),
	}
	got := FixedOrderSorter{Titles: []string{"A", "B"}}.Sort(in, random.New(random.DefaultSeed))
	want := []types.Range{{0, 4}, {20, 24}, {0, 5}, {5, 10}, {9, 9.5}}
	if !reflect.DeepEqual(ranges(got), want) {
		t.Fatalf("ranges = %v, want %v", ranges(got), want)
	}
}

func TestRandomSorter(t *testing.T) {
	var in []types.Clip
	for i := 0; i < 6; i++ {
		in = append(in, clip(float64(i), float64(i+1), 0, i, "A"))
	}
	got := RandomSorter{}.Sort(in, random.New(random.DefaultSeed))
	var order []int
	for _, c := range got {
		order = append(order, int(c.Range.Start()))
	}
	if want := []int{3, 0, 4, 2, 5, 1}; !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestSorters_SameSeedSamePermutation(t *testing.T) {
	var in []types.Clip
	for i := 0; i < 20; i++ {
		in = append(in, clip(float64(i), float64(i+2), i%3, i%2, string(rune('A'+i%4))))
	}
	sorters := []Sorter{RandomSorter{}, SceneOrderSorter{}, FixedOrderSorter{Titles: []string{"C", "A"}}}
	for _, s := range sorters {
		t.Run(s.Name(), func(t *testing.T) {
			a := s.Sort(in, random.New(5))
			b := s.Sort(in, random.New(5))
			if !reflect.DeepEqual(a, b) {
				t.Fatalf("permutation differs between runs")
			}
			if len(a) != len(in) {
				t.Fatalf("lost clips: %d of %d", len(a), len(in))
			}
		})
	}
}

func TestOrderValidate(t *testing.T) {
	tests := []struct {
		order   Order
		wantErr bool
	}{
		{order: Order{Kind: OrderRandom}},
		{order: Order{Kind: OrderScene}},
		{order: Order{Kind: OrderNone}},
		{order: Order{Kind: OrderFixed, Titles: []string{"A"}}},
		{order: Order{Kind: OrderFixed}, wantErr: true},
		{order: Order{Kind: "sideways"}, wantErr: true},
	}
	for _, tt := range tests {
		err := tt.order.Validate()
		if (err != nil) != tt.wantErr {
			t.Fatalf("Validate(%+v) err = %v, wantErr %v", tt.order, err, tt.wantErr)
		}
	}
	if NewSorter(Order{Kind: OrderNone}) != nil {
		t.Fatalf("expected no sorter for order none")
	}
}
