package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/forPelevin/clipmash/internal/logging"
	"github.com/forPelevin/clipmash/internal/ports/adapters/sqlite"
	"github.com/forPelevin/clipmash/internal/request"
)

type ImportConfig struct {
	LibraryPath string
	DBPath      string
	Logger      zerolog.Logger
}

func (c ImportConfig) Validate() error {
	if c.LibraryPath == "" {
		return errors.New("library file is empty")
	}
	if _, err := os.Stat(c.LibraryPath); err != nil {
		return fmt.Errorf("stat library: %w", err)
	}
	if c.DBPath == "" {
		return errors.New("db path is required")
	}
	return nil
}

type ImportStats struct {
	Videos  int
	Markers int
	Songs   int
}

// Import loads a library document into the database. Videos go first so
// markers can reference them.
func Import(ctx context.Context, cfg ImportConfig) (ImportStats, error) {
	doc, err := request.LoadLibraryFile(cfg.LibraryPath)
	if err != nil {
		return ImportStats{}, err
	}
	lib, err := doc.Convert()
	if err != nil {
		return ImportStats{}, fmt.Errorf("library: %w", err)
	}

	db, err := sqlite.Open(cfg.DBPath, logging.WithComponent(cfg.Logger, "sqlite"))
	if err != nil {
		return ImportStats{}, err
	}
	defer db.Close()

	var stats ImportStats
	for _, v := range lib.Videos {
		if err := db.PutVideo(ctx, sqlite.Video{ID: v.ID, Path: v.Path, Title: v.Title}); err != nil {
			return stats, err
		}
		stats.Videos++
	}
	for _, m := range lib.Markers {
		if err := db.PutMarker(ctx, m); err != nil {
			return stats, err
		}
		stats.Markers++
	}
	for _, s := range lib.Songs {
		id, err := db.PutSong(ctx, sqlite.Song{ID: s.ID, Title: s.Title, Path: s.Path, Beats: s.Beats})
		if err != nil {
			return stats, err
		}
		cfg.Logger.Debug().Int64("id", id).Str("title", s.Title).Msg("song stored")
		stats.Songs++
	}
	log := logging.WithComponent(cfg.Logger, "pipeline")
	log.Info().
		Int("videos", stats.Videos).Int("markers", stats.Markers).Int("songs", stats.Songs).
		Msg("library imported")
	return stats, nil
}
