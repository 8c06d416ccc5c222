package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/forPelevin/clipmash/internal/domain/clips"
	"github.com/forPelevin/clipmash/internal/domain/describe"
	"github.com/forPelevin/clipmash/internal/logging"
	"github.com/forPelevin/clipmash/internal/ports"
	"github.com/forPelevin/clipmash/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/clipmash/internal/ports/adapters/sqlite"
	"github.com/forPelevin/clipmash/internal/request"
	"github.com/forPelevin/clipmash/internal/types"
	"github.com/forPelevin/clipmash/internal/usecase"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type Config struct {
	RequestPath string
	OutDir      string

	// Seed and Order override the request document when set.
	Seed  *string
	Order string

	Format   string
	Describe bool
	Render   bool
	Concat   bool

	// DBPath points at the library database used to resolve marker_ids and
	// song_ids. Empty means no library.
	DBPath string

	FFmpegPath  string
	FFprobePath string
	Parallelism int

	Logger zerolog.Logger
}

func (c Config) Validate() error {
	if c.RequestPath == "" {
		return errors.New("request is empty")
	}
	if _, err := os.Stat(c.RequestPath); err != nil {
		return fmt.Errorf("stat request: %w", err)
	}
	switch c.Format {
	case FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("format must be %s or %s, got %q", FormatJSON, FormatYAML, c.Format)
	}
	if c.Order != "" {
		switch clips.OrderKind(c.Order) {
		case clips.OrderRandom, clips.OrderScene, clips.OrderFixed, clips.OrderNone:
		default:
			return fmt.Errorf("unknown order %q", c.Order)
		}
	}
	if c.Concat && !c.Render {
		return errors.New("concat needs render")
	}
	if c.Parallelism <= 0 {
		return errors.New("parallelism must be > 0")
	}
	return nil
}

// Run loads the request, arranges the compilation and writes the run
// directory. It returns the run directory, which is also returned together
// with usecase.ErrNoClips so the caller can point at the empty manifest.
func Run(ctx context.Context, cfg Config) (string, error) {
	log := logging.WithComponent(cfg.Logger, "pipeline")

	doc, err := request.LoadFile(cfg.RequestPath)
	if err != nil {
		return "", err
	}
	if cfg.Seed != nil {
		doc.Seed = cfg.Seed
	}
	if cfg.Order != "" {
		doc.Order.Type = cfg.Order
	}
	req, err := doc.Convert()
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}

	deps := usecase.Deps{
		Video:  ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath),
		Logger: logging.WithComponent(cfg.Logger, "usecase"),
	}
	if cfg.DBPath != "" {
		lib, err := sqlite.Open(cfg.DBPath, logging.WithComponent(cfg.Logger, "sqlite"))
		if err != nil {
			return "", err
		}
		defer lib.Close()
		deps.Library = lib
	}
	uc := usecase.New(deps)

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.RequestPath, time.Now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return "", err
	}
	log.Info().Str("dir", runOutDir).Msg("output run dir")

	res, runErr := uc.Run(ctx, usecase.Input{
		Request:     req,
		OutDir:      runOutDir,
		Render:      cfg.Render,
		Concat:      cfg.Concat,
		Parallelism: cfg.Parallelism,
	})
	if runErr != nil && !errors.Is(runErr, usecase.ErrNoClips) {
		return runOutDir, runErr
	}

	manifestPath, err := writeManifest(runOutDir, cfg.Format, res.Manifest)
	if err != nil {
		return runOutDir, err
	}
	log.Info().Int("clips", len(res.Manifest.Clips)).Str("path", manifestPath).Msg("manifest written")

	if cfg.Describe {
		name := strings.TrimSuffix(filepath.Base(cfg.RequestPath), filepath.Ext(cfg.RequestPath))
		md := describe.Markdown(name, res.Clips, describeVideos(res.Clips, res.Videos))
		path := filepath.Join(runOutDir, "description.md")
		if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
			return runOutDir, err
		}
		log.Info().Str("path", path).Msg("description written")
	}
	return runOutDir, runErr
}

func writeManifest(dir, format string, m types.Manifest) (string, error) {
	var (
		b    []byte
		err  error
		name string
	)
	switch format {
	case FormatYAML:
		name = "manifest.yaml"
		b, err = yaml.Marshal(m)
	default:
		name = "manifest.json"
		b, err = json.MarshalIndent(m, "", "  ")
	}
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// describeVideos lists every video used by cs, titled by its file name.
// Videos without a known file are left untitled and show up by ID.
func describeVideos(cs []types.Clip, paths map[types.VideoID]string) []describe.Video {
	seen := make(map[types.VideoID]bool)
	var out []describe.Video
	for _, c := range cs {
		if seen[c.VideoID] {
			continue
		}
		seen[c.VideoID] = true
		v := describe.Video{ID: c.VideoID}
		if p, ok := paths[c.VideoID]; ok {
			v.Title = strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Compare(out[j].ID) < 0 })
	return out
}

func buildRunOutDir(outRoot, requestPath string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(requestPath), filepath.Ext(requestPath))
	name = normalizePathSegment(name)
	if name == "" {
		name = "request"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", requestPath, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.Library = (*sqlite.Library)(nil)
