package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/axondata/go-statusbar"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the parsed i3status config as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := a.settings()
			if err != nil {
				return err
			}

			cfg, err := statusbar.ParseConfig(settings.ProducerConfigPath())
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Print the effective settings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := a.settings()
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(settings)
			if err != nil {
				return err
			}
			if used := a.v.ConfigFileUsed(); used != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# settings file: %s\n", used)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the i3status config path in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := a.settings()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), settings.ProducerConfigPath())
			return nil
		},
	}

	configCmd.AddCommand(showCmd, settingsCmd, pathCmd)
	return configCmd
}
