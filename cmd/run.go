package cmd

import "github.com/spf13/cobra"

func newRunCmd(a *app) *cobra.Command {
	var journalDir string
	var resendState bool

	runCmd := &cobra.Command{
		Use:   "relay",
		Short: "Tail the journal and relay telemetry reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if journalDir != "" {
				a.cfg.JournalDir = journalDir
			}
			if resendState {
				a.engine.SetCredentials()
			}
			return a.runRelay(cmd)
		},
	}

	runCmd.Flags().StringVar(&journalDir, "journal", "", "journal directory to tail (overrides config)")
	runCmd.Flags().BoolVar(&resendState, "resend-state", false, "re-report the full commander starting state")

	return runCmd
}
