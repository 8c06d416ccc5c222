package ports

import (
	"context"
	"time"

	"github.com/forPelevin/clipmash/internal/types"
)

type VideoTool interface {
	ProbeDuration(ctx context.Context, inMP4 string) (time.Duration, error)
	RenderClip(ctx context.Context, inMP4 string, start, end time.Duration, outMP4 string) error
	Concat(ctx context.Context, parts []string, outMP4 string) error
}

// Library resolves stored markers, songs and video files. Unknown marker
// and song ids are an error.
type Library interface {
	Markers(ctx context.Context, ids []types.MarkerID) ([]types.Marker, error)
	Songs(ctx context.Context, ids []int64) ([]types.Beats, error)
	VideoPaths(ctx context.Context, ids []types.VideoID) (map[types.VideoID]string, error)
}
