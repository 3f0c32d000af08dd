package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sfr",
		Short:         "Straylight Flight Recorder: relay journal telemetry",
		Long:          "sfr tails the game journal, translates entries into telemetry report records and delivers them to the Straylight service in batches.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(app),
		newConfigCmd(app),
	)

	return rootCmd
}
