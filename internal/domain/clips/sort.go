package clips

import (
	"fmt"
	"math"
	"sort"

	"github.com/forPelevin/clipmash/internal/domain/random"
	"github.com/forPelevin/clipmash/internal/types"
)

// Sorter reorders clips. The input slice is not modified.
type Sorter interface {
	Name() string
	Sort(clips []types.Clip, r *random.Rand) []types.Clip
}

type OrderKind string

const (
	OrderRandom OrderKind = "random"
	OrderScene  OrderKind = "scene"
	OrderFixed  OrderKind = "fixed"
	OrderNone   OrderKind = "none"
)

type Order struct {
	Kind OrderKind
	// Titles lists marker titles in playback order for OrderFixed.
	Titles []string
}

func (o Order) Validate() error {
	switch o.Kind {
	case OrderRandom, OrderScene, OrderNone:
		return nil
	case OrderFixed:
		if len(o.Titles) == 0 {
			return fmt.Errorf("order %q needs at least one title", o.Kind)
		}
		return nil
	default:
		return fmt.Errorf("unknown order %q", o.Kind)
	}
}

// NewSorter returns nil for OrderNone.
func NewSorter(o Order) Sorter {
	switch o.Kind {
	case OrderRandom:
		return RandomSorter{}
	case OrderScene:
		return SceneOrderSorter{}
	case OrderFixed:
		return FixedOrderSorter{Titles: o.Titles}
	case OrderNone:
		return nil
	default:
		panic(fmt.Sprintf("clips: unknown order %q", o.Kind))
	}
}

type RandomSorter struct{}

func (RandomSorter) Name() string { return string(OrderRandom) }

func (RandomSorter) Sort(clips []types.Clip, r *random.Rand) []types.Clip {
	out := append([]types.Clip(nil), clips...)
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// SceneOrderSorter keeps clips in video order: by marker position in the
// video, then by position inside the marker. Ties are broken randomly.
type SceneOrderSorter struct{}

func (SceneOrderSorter) Name() string { return string(OrderScene) }

func (SceneOrderSorter) Sort(clips []types.Clip, r *random.Rand) []types.Clip {
	return sortKeyed(clips, r, func(types.Clip) int { return 0 })
}

// FixedOrderSorter groups clips by marker title in the order of Titles.
// Titles not in the list go last.
type FixedOrderSorter struct {
	Titles []string
}

func (FixedOrderSorter) Name() string { return string(OrderFixed) }

func (s FixedOrderSorter) Sort(clips []types.Clip, r *random.Rand) []types.Clip {
	pos := make(map[string]int, len(s.Titles))
	for i, t := range s.Titles {
		if _, ok := pos[t]; !ok {
			pos[t] = i
		}
	}
	return sortKeyed(clips, r, func(c types.Clip) int {
		if p, ok := pos[c.MarkerTitle]; ok {
			return p
		}
		return math.MaxInt
	})
}

type keyedClip struct {
	clip    types.Clip
	primary int
	tie     uint64
}

// sortKeyed draws one tiebreak per clip in input order, then sorts by
// (primary, index within video, index within marker, tiebreak).
func sortKeyed(clips []types.Clip, r *random.Rand, primary func(types.Clip) int) []types.Clip {
	keyed := make([]keyedClip, len(clips))
	for i, c := range clips {
		keyed[i] = keyedClip{clip: c, primary: primary(c), tie: r.Uint64()}
	}
	sort.SliceStable(keyed, func(i, j int) bool {
		a, b := keyed[i], keyed[j]
		if a.primary != b.primary {
			return a.primary < b.primary
		}
		if a.clip.IndexWithinVideo != b.clip.IndexWithinVideo {
			return a.clip.IndexWithinVideo < b.clip.IndexWithinVideo
		}
		if a.clip.IndexWithinMarker != b.clip.IndexWithinMarker {
			return a.clip.IndexWithinMarker < b.clip.IndexWithinMarker
		}
		return a.tie < b.tie
	})
	out := make([]types.Clip, len(keyed))
	for i, k := range keyed {
		out[i] = k.clip
	}
	return out
}
