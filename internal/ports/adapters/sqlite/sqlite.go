package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/forPelevin/clipmash/internal/types"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Library stores videos, markers and songs with their beats.
type Library struct {
	conn   *sql.DB
	logger zerolog.Logger
}

type Video struct {
	ID    types.VideoID
	Path  string
	Title string
}

type Song struct {
	ID    int64
	Title string
	Path  string
	Beats *types.Beats
}

func Open(dbPath string, logger zerolog.Logger) (*Library, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	l := &Library{conn: conn, logger: logger}
	if err := l.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return l, nil
}

func (l *Library) Close() error {
	return l.conn.Close()
}

func (l *Library) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if l.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := l.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := l.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		l.logger.Debug().Str("name", name).Msg("applied migration")
	}
	return nil
}

func (l *Library) isMigrationApplied(name string) bool {
	var exists int
	err := l.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}
	var applied int
	err = l.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

func (l *Library) PutVideo(ctx context.Context, v Video) error {
	_, err := l.conn.ExecContext(ctx,
		`INSERT INTO videos (source, id, path, title) VALUES (?, ?, ?, ?)
		 ON CONFLICT(source, id) DO UPDATE SET path = excluded.path, title = excluded.title`,
		string(v.ID.Source), v.ID.ID, v.Path, v.Title)
	if err != nil {
		return fmt.Errorf("put video %s: %w", v.ID, err)
	}
	return nil
}

func (l *Library) PutMarker(ctx context.Context, m types.Marker) error {
	_, err := l.conn.ExecContext(ctx,
		`INSERT INTO markers (source, id, video_source, video_id, start_time, end_time, index_within_video, title, loops)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source, id) DO UPDATE SET
		   video_source = excluded.video_source, video_id = excluded.video_id,
		   start_time = excluded.start_time, end_time = excluded.end_time,
		   index_within_video = excluded.index_within_video, title = excluded.title, loops = excluded.loops`,
		string(m.ID.Source), m.ID.ID, string(m.VideoID.Source), m.VideoID.ID,
		m.Start, m.End, m.IndexWithinVideo, m.Title, m.Loops)
	if err != nil {
		return fmt.Errorf("put marker %s: %w", m.ID, err)
	}
	return nil
}

// PutSong inserts a song, or replaces it when ID is set, and returns its id.
func (l *Library) PutSong(ctx context.Context, s Song) (int64, error) {
	var beats sql.NullString
	if s.Beats != nil {
		b, err := json.Marshal(s.Beats)
		if err != nil {
			return 0, fmt.Errorf("encode beats: %w", err)
		}
		beats = sql.NullString{String: string(b), Valid: true}
	}

	if s.ID != 0 {
		_, err := l.conn.ExecContext(ctx,
			`INSERT INTO songs (id, title, path, beats) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET title = excluded.title, path = excluded.path, beats = excluded.beats`,
			s.ID, s.Title, s.Path, beats)
		if err != nil {
			return 0, fmt.Errorf("put song %d: %w", s.ID, err)
		}
		return s.ID, nil
	}
	res, err := l.conn.ExecContext(ctx, `INSERT INTO songs (title, path, beats) VALUES (?, ?, ?)`, s.Title, s.Path, beats)
	if err != nil {
		return 0, fmt.Errorf("insert song: %w", err)
	}
	return res.LastInsertId()
}

// Markers returns markers in the order of ids.
func (l *Library) Markers(ctx context.Context, ids []types.MarkerID) ([]types.Marker, error) {
	out := make([]types.Marker, 0, len(ids))
	for _, id := range ids {
		m := types.Marker{ID: id}
		var vsrc string
		err := l.conn.QueryRowContext(ctx,
			`SELECT video_source, video_id, start_time, end_time, index_within_video, title, loops
			 FROM markers WHERE source = ? AND id = ?`,
			string(id.Source), id.ID,
		).Scan(&vsrc, &m.VideoID.ID, &m.Start, &m.End, &m.IndexWithinVideo, &m.Title, &m.Loops)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("marker %s not found", id)
		}
		if err != nil {
			return nil, fmt.Errorf("query marker %s: %w", id, err)
		}
		m.VideoID.Source = types.VideoSource(vsrc)
		out = append(out, m)
	}
	return out, nil
}

// Songs returns the beats of each song in the order of ids.
func (l *Library) Songs(ctx context.Context, ids []int64) ([]types.Beats, error) {
	out := make([]types.Beats, 0, len(ids))
	for _, id := range ids {
		var raw sql.NullString
		err := l.conn.QueryRowContext(ctx, `SELECT beats FROM songs WHERE id = ?`, id).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("song %d not found", id)
		}
		if err != nil {
			return nil, fmt.Errorf("query song %d: %w", id, err)
		}
		if !raw.Valid {
			return nil, fmt.Errorf("song %d has no beats", id)
		}
		var b types.Beats
		if err := json.Unmarshal([]byte(raw.String), &b); err != nil {
			return nil, fmt.Errorf("decode beats of song %d: %w", id, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// VideoPaths returns the stored file path of every known video in ids.
// Videos without a path are left out.
func (l *Library) VideoPaths(ctx context.Context, ids []types.VideoID) (map[types.VideoID]string, error) {
	out := make(map[types.VideoID]string, len(ids))
	for _, id := range ids {
		var path string
		err := l.conn.QueryRowContext(ctx, `SELECT path FROM videos WHERE source = ? AND id = ?`, string(id.Source), id.ID).Scan(&path)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("query video %s: %w", id, err)
		}
		if path != "" {
			out[id] = path
		}
	}
	return out, nil
}
