package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/clipmash/internal/domain/clips"
	"github.com/forPelevin/clipmash/internal/ports"
	"github.com/forPelevin/clipmash/internal/request"
	"github.com/forPelevin/clipmash/internal/types"
)

// ErrNoClips is returned when rendering was requested but the engine
// produced an empty compilation.
var ErrNoClips = errors.New("no clips to render")

// endSlack absorbs container rounding when checking clips against the
// probed video length.
const endSlack = 50 * time.Millisecond

type Deps struct {
	Video   ports.VideoTool
	Library ports.Library
	Logger  zerolog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	Request     request.Request
	OutDir      string
	Render      bool
	Concat      bool
	Parallelism int
}

type Result struct {
	Manifest types.Manifest
	Clips    []types.Clip
	// Videos maps every video used by the compilation to its file, when known.
	Videos map[types.VideoID]string
}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	log := u.d.Logger
	req, err := u.resolve(ctx, in.Request)
	if err != nil {
		return Result{}, err
	}
	if err := req.Arrange.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid options: %w", err)
	}

	arranged := clips.Arrange(req.Arrange)
	log.Info().
		Str("picker", arranged.Picker).
		Str("order", string(arranged.Order)).
		Int("markers", len(req.Arrange.Markers)).
		Int("clips", len(arranged.Clips)).
		Float64("total_sec", arranged.TotalDuration).
		Msg("arranged clips")
	for i, c := range arranged.Clips {
		log.Debug().Int("index", i).Str("video", c.VideoID.String()).
			Float64("start", c.Range.Start()).Float64("end", c.Range.End()).Msg("clip")
	}

	videos, err := u.videoPaths(ctx, req, arranged.Clips, in.Render)
	if err != nil {
		return Result{}, err
	}

	m := types.Manifest{
		ID:            uuid.NewString(),
		Seed:          req.Arrange.Seed,
		Picker:        arranged.Picker,
		Order:         string(arranged.Order),
		TotalDuration: arranged.TotalDuration,
		BeatOffsets:   arranged.BeatOffsets,
		Clips:         make([]types.ManifestClip, 0, len(arranged.Clips)),
	}
	for i, c := range arranged.Clips {
		m.Clips = append(m.Clips, types.ManifestClip{
			Index:       i + 1,
			VideoID:     c.VideoID.String(),
			MarkerID:    c.MarkerID.String(),
			StartSec:    c.Range.Start(),
			EndSec:      c.Range.End(),
			DurationSec: c.Duration(),
			MarkerTitle: c.MarkerTitle,
		})
	}

	res := Result{Manifest: m, Clips: arranged.Clips, Videos: videos}
	if !in.Render {
		return res, nil
	}
	if len(arranged.Clips) == 0 {
		return res, ErrNoClips
	}
	if u.d.Video == nil {
		return Result{}, errors.New("rendering needs a video tool")
	}
	if err := u.checkBounds(ctx, arranged.Clips, videos, in.Parallelism); err != nil {
		return Result{}, err
	}

	parts, err := u.render(ctx, arranged.Clips, videos, in)
	if err != nil {
		return Result{}, err
	}
	for i := range res.Manifest.Clips {
		res.Manifest.Clips[i].File = filepath.ToSlash(filepath.Join("clips", clipName(i)))
	}

	if in.Concat {
		out := filepath.Join(in.OutDir, "compilation.mp4")
		if err := u.d.Video.Concat(ctx, parts, out); err != nil {
			return Result{}, err
		}
		res.Manifest.Output = "compilation.mp4"
		log.Info().Str("path", out).Int("parts", len(parts)).Msg("concatenated compilation")
	}
	return res, nil
}

// resolve pulls markers and songs given by id out of the library.
func (u Usecase) resolve(ctx context.Context, req request.Request) (request.Request, error) {
	if len(req.MarkerIDs) == 0 && len(req.SongIDs) == 0 {
		return req, nil
	}
	if u.d.Library == nil {
		return request.Request{}, errors.New("marker_ids and song_ids need a library database")
	}
	if len(req.MarkerIDs) > 0 {
		markers, err := u.d.Library.Markers(ctx, req.MarkerIDs)
		if err != nil {
			return request.Request{}, fmt.Errorf("resolve markers: %w", err)
		}
		req.Arrange.Markers = append(append([]types.Marker(nil), req.Arrange.Markers...), markers...)
	}
	if len(req.SongIDs) > 0 {
		songs, err := u.d.Library.Songs(ctx, req.SongIDs)
		if err != nil {
			return request.Request{}, fmt.Errorf("resolve songs: %w", err)
		}
		req = req.WithSongs(songs)
	}
	return req, nil
}

// videoPaths collects file paths for the videos used by cs. Request entries
// win over library entries. A missing path is only an error when rendering.
func (u Usecase) videoPaths(ctx context.Context, req request.Request, cs []types.Clip, render bool) (map[types.VideoID]string, error) {
	out := make(map[types.VideoID]string)
	var missing []types.VideoID
	for _, id := range usedVideos(cs) {
		if p, ok := req.Videos[id]; ok {
			out[id] = p
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) > 0 && u.d.Library != nil {
		found, err := u.d.Library.VideoPaths(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("resolve videos: %w", err)
		}
		for id, p := range found {
			out[id] = p
		}
	}
	if render {
		for _, id := range missing {
			if _, ok := out[id]; !ok {
				return nil, fmt.Errorf("no file for video %s", id)
			}
		}
	}
	return out, nil
}

// checkBounds probes every video once and rejects clips running past its end.
func (u Usecase) checkBounds(ctx context.Context, cs []types.Clip, videos map[types.VideoID]string, parallelism int) error {
	ids := usedVideos(cs)
	durations := make(map[types.VideoID]time.Duration, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallelism, 1))
	for _, id := range ids {
		id := id
		g.Go(func() error {
			d, err := u.d.Video.ProbeDuration(gctx, videos[id])
			if err != nil {
				return fmt.Errorf("probe %s: %w", id, err)
			}
			mu.Lock()
			durations[id] = d
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, c := range cs {
		d := durations[c.VideoID]
		if seconds(c.Range.End()) > d+endSlack {
			return fmt.Errorf("clip %d ends at %.3fs, past the end of video %s (%.3fs)", i+1, c.Range.End(), c.VideoID, d.Seconds())
		}
	}
	return nil
}

func (u Usecase) render(ctx context.Context, cs []types.Clip, videos map[types.VideoID]string, in Input) ([]string, error) {
	clipsDir := filepath.Join(in.OutDir, "clips")
	if err := os.MkdirAll(clipsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create clips dir: %w", err)
	}

	parts := make([]string, len(cs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(in.Parallelism, 1))
	for i, c := range cs {
		i, c := i, c
		parts[i] = filepath.Join(clipsDir, clipName(i))
		g.Go(func() error {
			start, end := seconds(c.Range.Start()), seconds(c.Range.End())
			if err := u.d.Video.RenderClip(gctx, videos[c.VideoID], start, end, parts[i]); err != nil {
				return fmt.Errorf("render clip %d: %w", i+1, err)
			}
			u.d.Logger.Debug().Int("index", i+1).Str("path", parts[i]).Msg("rendered clip")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	u.d.Logger.Info().Int("clips", len(parts)).Str("dir", clipsDir).Msg("rendered clips")
	return parts, nil
}

func usedVideos(cs []types.Clip) []types.VideoID {
	seen := make(map[types.VideoID]bool)
	var out []types.VideoID
	for _, c := range cs {
		if !seen[c.VideoID] {
			seen[c.VideoID] = true
			out = append(out, c.VideoID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

func clipName(i int) string { return fmt.Sprintf("%03d.mp4", i+1) }

func seconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }
