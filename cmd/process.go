package cmd

import (
	"fmt"

	"github.com/fbz-tec/storexport/core/export"
	"github.com/fbz-tec/storexport/internal/logger"
	"github.com/fbz-tec/storexport/internal/ui"
	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process <job-id>",
	Short: "Run exactly one batch of an export job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		res, err := e.engine.ProcessBatch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.String())
		printDownloads(cmd, res)
		return nil
	},
}

var (
	runFlags requestFlags
	runJobID string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Create an export (or resume one with --job) and drive it to completion",
	Example: `  storexport run --kind user --fields Username,Email --formats csv,json
  storexport run --job 3f0c...`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var req export.CreateRequest
		if runJobID == "" {
			var err error
			if req, err = runFlags.request(cmd); err != nil {
				return err
			}
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		ctx := cmd.Context()
		jobID := runJobID
		if jobID == "" {
			created, err := e.engine.CreateExport(ctx, req)
			if err != nil {
				return err
			}
			jobID = created.JobID
			logger.Info("Export %s created: %d item(s)", jobID, created.Total)
		} else {
			logger.Info("Resuming export %s", jobID)
		}

		tracker := ui.NewTracker(logger.IsQuiet() || logger.IsVerbose())
		res, err := e.engine.Run(ctx, jobID, func(r export.BatchResult) {
			if r.FormatCompleted != "" {
				tracker.Finish()
				logger.Info("Format %s completed", r.FormatCompleted)
				return
			}
			if !r.Completed {
				tracker.Update(r.CurrentFormat, r.Processed, r.Total)
				logger.Debug("%s", r.String())
			}
		})
		tracker.Finish()
		if err != nil {
			return fmt.Errorf("export %s stopped: %w", jobID, err)
		}

		logger.Success("Export %s completed: %d item(s) in %d file(s)", jobID, res.Total, len(res.Downloads))
		printDownloads(cmd, res)
		return nil
	},
}

func printDownloads(cmd *cobra.Command, res export.BatchResult) {
	for _, d := range res.Downloads {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", d.Format, d.Filename, d.Token)
	}
}

func init() {
	runFlags.register(runCmd)
	runCmd.Flags().StringVar(&runJobID, "job", "", "Resume an existing job instead of creating one")
}
