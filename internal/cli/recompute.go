package cli

import (
	"github.com/spf13/cobra"
)

func newRecomputeCommand(opts *options) *cobra.Command {
	var windowDays int

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute cached relevance scores now",
		Long:  "Rescore every post created within the window and store the neutral baseline score.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rc := opts.remote(); rc != nil {
				result, err := rc.Recompute(cmd.Context(), windowDays)
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), opts.output, result)
			}

			app, release, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer release()

			result, err := app.Scheduler().Recompute(cmd.Context(), windowDays)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.output, result)
		},
	}

	cmd.Flags().IntVar(&windowDays, "window-days", 0, "Days of posts to rescore (default: configured window)")
	return cmd
}
