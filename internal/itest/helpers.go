//go:build integration

package itest

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/forPelevin/clipmash/internal/ports/adapters/ffmpeg"
)

// probeDurationSeconds measures a rendered file with the same adapter the
// pipeline uses.
func probeDurationSeconds(mp4Path string) (float64, error) {
	d, err := ffmpeg.New("ffmpeg", "ffprobe").ProbeDuration(context.Background(), mp4Path)
	if err != nil {
		return 0, err
	}
	return d.Seconds(), nil
}

// findRepoRoot walks up from the working directory to the go.mod.
func findRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not locate go.mod")
		}
		dir = parent
	}
}
