package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/civic-pulse/internal/export"
	"github.com/sells-group/civic-pulse/internal/pipeline"
	"github.com/sells-group/civic-pulse/internal/store"
)

var (
	runBaseDir string
	runOutDir  string
	runNoStore bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full analytics pipeline",
	Long: `Loads all shard files for the biometric, demographic, and enrolment
categories, normalizes geography labels, and writes the district, state, and
monthly trend tables.

The run aborts without writing any output when a required category has no
usable data.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if runBaseDir != "" {
			cfg.Input.BaseDir = runBaseDir
		}
		if runOutDir != "" {
			cfg.Output.Dir = runOutDir
		}

		var st store.Store
		if !runNoStore {
			var err error
			st, err = initStore(ctx)
			if err != nil {
				return eris.Wrap(err, "run: init store")
			}
			defer st.Close() //nolint:errcheck
		}

		result, err := pipeline.New(cfg, st).Run(ctx)
		if err != nil {
			return eris.Wrap(err, "run")
		}

		if err := export.WriteAll(result, cfg.Output.Dir,
			cfg.Output.DistrictFile, cfg.Output.StateFile, cfg.Output.TrendsFile); err != nil {
			return eris.Wrap(err, "run: export")
		}

		zap.L().Info("run finished",
			zap.Int("districts", len(result.Districts)),
			zap.Int("states", len(result.States)),
			zap.Int("trend_points", len(result.Trends)),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runBaseDir, "base", "", "input base directory (default from config)")
	runCmd.Flags().StringVar(&runOutDir, "out", "", "output directory (default from config)")
	runCmd.Flags().BoolVar(&runNoStore, "no-store", false, "skip persisting the run to the database")
	rootCmd.AddCommand(runCmd)
}
