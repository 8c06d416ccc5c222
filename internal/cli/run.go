package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/clipmash/internal/logging"
	"github.com/forPelevin/clipmash/internal/pipeline"
	"github.com/forPelevin/clipmash/internal/usecase"
)

func run(cmd *cobra.Command, input string) error {
	outDir, _ := cmd.Flags().GetString("out")
	order, _ := cmd.Flags().GetString("order")
	format, _ := cmd.Flags().GetString("format")
	describe, _ := cmd.Flags().GetBool("describe")
	render, _ := cmd.Flags().GetBool("render")
	concat, _ := cmd.Flags().GetBool("concat")
	dbPath, _ := cmd.Flags().GetString("db")
	level, _ := cmd.Flags().GetString("log-level")
	parallel, _ := cmd.Flags().GetInt("parallel")

	logger, err := logging.New(os.Stderr, level)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if parallel == 0 {
		parallel, err = envParallelism()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Hour)
	defer cancel()

	cfg := pipeline.Config{
		RequestPath: absIn,
		OutDir:      outDir,
		Order:       order,
		Format:      format,
		Describe:    describe,
		Render:      render,
		Concat:      concat,
		DBPath:      dbPath,

		FFmpegPath:  getenvDefault("CLIPMASH_FFMPEG", "ffmpeg"),
		FFprobePath: getenvDefault("CLIPMASH_FFPROBE", "ffprobe"),
		Parallelism: parallel,

		Logger: logger,
	}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetString("seed")
		cfg.Seed = &seed
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	runDir, err := pipeline.Run(ctx, cfg)
	if runDir != "" && (err == nil || errors.Is(err, usecase.ErrNoClips)) {
		fmt.Fprintln(cmd.OutOrStdout(), runDir)
	}
	return err
}

func envParallelism() (int, error) {
	v := os.Getenv("CLIPMASH_PARALLELISM")
	if v == "" {
		return runtime.NumCPU(), nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("CLIPMASH_PARALLELISM: %w", err)
	}
	return n, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
