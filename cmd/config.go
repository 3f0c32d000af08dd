package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chadvangaalen/sfr/internal/adapters/config"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage relay configuration",
	}

	configCmd.AddCommand(
		newConfigInitCmd(a),
		newConfigShowCmd(a),
	)

	return configCmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the current settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.Path()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config file already exists: %s", path)
			}
			if err := config.Write(path, a.cfg); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			apiURL := a.cfg.APIURL
			if apiURL == "" {
				apiURL = "(default)"
			}
			fmt.Fprintf(out, "api.url:           %s\n", apiURL)
			fmt.Fprintf(out, "api.timeout:       %s\n", a.cfg.APITimeout)
			fmt.Fprintf(out, "journal.dir:       %s\n", a.cfg.JournalDir)
			fmt.Fprintf(out, "providers.system:  %s\n", a.cfg.SystemProvider)
			fmt.Fprintf(out, "providers.station: %s\n", a.cfg.StationProvider)
			return nil
		},
	}
}
