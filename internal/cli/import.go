package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forPelevin/clipmash/internal/logging"
	"github.com/forPelevin/clipmash/internal/pipeline"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "import <library>",
		Short:        "Load videos, markers and songs into the library database",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			level, _ := cmd.Flags().GetString("log-level")

			logger, err := logging.New(os.Stderr, level)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			absIn, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			cfg := pipeline.ImportConfig{LibraryPath: absIn, DBPath: dbPath, Logger: logger}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			stats, err := pipeline.Import(context.Background(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d videos, %d markers, %d songs\n", stats.Videos, stats.Markers, stats.Songs)
			return nil
		},
	}
}
