// Command kodimpd runs the MPD frontend for a Kodi media center.
package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marmeladema/kodimpd"
	"github.com/marmeladema/kodimpd/logging"
)

const version = "0.1.0"

// configFile holds the value of the --config flag.
var configFile string

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.Flags()
	flags.StringVar(&configFile, "config", "",
		"config file (default: $XDG_CONFIG_HOME/kodimpd/config.yaml)")
	flags.String("listen", kodimpd.DefaultListen,
		"MPD listen address: host:port, or an absolute unix socket path")
	flags.String("kodi", kodimpd.DefaultKodiURL,
		"Kodi JSON-RPC endpoint URL")
	flags.Duration("poll-interval", kodimpd.DefaultPollInterval,
		"how often to poll Kodi for state changes")
	flags.Duration("timeout", kodimpd.DefaultCallTimeout,
		"timeout for each Kodi call")
	flags.String("log-level", "info",
		"log level: debug, info, warn, error")
	flags.String("log-format", "text",
		"log format: text, json")

	viper.BindPFlag("listen", flags.Lookup("listen"))
	viper.BindPFlag("kodi", flags.Lookup("kodi"))
	viper.BindPFlag("poll_interval", flags.Lookup("poll-interval"))
	viper.BindPFlag("timeout", flags.Lookup("timeout"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("log_format", flags.Lookup("log-format"))

	rootCmd.Version = version
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(filepath.Join(xdg.ConfigHome, "kodimpd"))
	}

	viper.SetEnvPrefix("KODIMPD")
	viper.AutomaticEnv()
}

var rootCmd = &cobra.Command{
	Use:   "kodimpd",
	Short: "MPD protocol frontend for Kodi",
	Long: `kodimpd serves the MPD protocol and forwards commands to a Kodi
media center over its JSON-RPC HTTP interface, so any MPD client can
browse the Kodi audio library and control playback.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if configFile != "" || !errors.As(err, &notFound) {
				return errors.Wrap(err, "read config file")
			}
		}

		level, err := logging.ParseLevel(viper.GetString("log_level"))
		if err != nil {
			return err
		}
		logger := logging.New(logging.Config{
			Level:  level,
			Format: logging.Format(viper.GetString("log_format")),
			Output: cmd.ErrOrStderr(),
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return kodimpd.Run(ctx, kodimpd.Config{
			Listen:       viper.GetString("listen"),
			KodiURL:      viper.GetString("kodi"),
			PollInterval: viper.GetDuration("poll_interval"),
			CallTimeout:  viper.GetDuration("timeout"),
			Logger:       logger,
		})
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
