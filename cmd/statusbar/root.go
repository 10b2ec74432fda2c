package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/axondata/go-statusbar/internal/config"
)

// app carries the settings shared by every subcommand
type app struct {
	v            *viper.Viper
	settingsFile string
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:   "statusbar",
		Short: "i3bar status line aggregator",
		Long: `statusbar wraps i3status, keeps its time fields ticking every second and
merges the output of in-process workers into one i3bar protocol stream.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.ReadSettingsFile(a.v, a.settingsFile)
		},
		RunE: a.runRun,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.settingsFile, "settings", "", "settings file (default is $XDG_CONFIG_HOME/statusbar/config.yaml)")
	flags.StringP("config", "c", "", "i3status config file (default: discovered like i3status does)")
	flags.StringP("binary", "b", "", "producer executable")
	flags.IntP("interval", "i", 0, "time field refresh interval in seconds")
	flags.BoolP("standalone", "s", false, "run without spawning the producer")
	flags.BoolP("debug", "d", false, "log at debug level")
	flags.String("log-file", "", "log file (default is stderr)")

	a.bind(root, "producer.config", "config")
	a.bind(root, "producer.binary", "binary")
	a.bind(root, "interval", "interval")
	a.bind(root, "standalone", "standalone")
	a.bind(root, "debug", "debug")
	a.bind(root, "logging.file", "log-file")

	root.AddCommand(newRunCmd(a), newConfigCmd(a), newVersionCmd())
	return root
}

func (a *app) bind(cmd *cobra.Command, key, flag string) {
	_ = a.v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag))
}

// settings loads and validates the effective settings
func (a *app) settings() (*config.Config, error) {
	return config.Load(a.v)
}
