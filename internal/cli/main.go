package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "clipmash <request>",
		Short:        "Arrange marker clips into a compilation",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	// Visible flags
	root.Flags().String("out", "out", "Output directory")
	root.Flags().String("seed", "", "Seed overriding the request")
	root.Flags().String("order", "", "Clip order overriding the request (random, scene, fixed, none)")
	root.Flags().String("format", "json", "Manifest format (json, yaml)")
	root.Flags().Bool("describe", false, "Write description.md")
	root.Flags().Bool("render", false, "Render clips with ffmpeg")
	root.Flags().Bool("concat", false, "Join rendered clips into compilation.mp4")
	root.PersistentFlags().String("db", getenvDefault("CLIPMASH_DB", ""), "Library database")
	root.PersistentFlags().String("log-level", getenvDefault("CLIPMASH_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	// Hidden tuning flag (internal)
	root.Flags().Int("parallel", 0, "Parallel ffmpeg jobs (defaults to CLIPMASH_PARALLELISM or the CPU count)")
	_ = root.Flags().MarkHidden("parallel")

	root.AddCommand(newImportCmd())
	return root
}
