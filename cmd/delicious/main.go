package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/delicious-go/delicious/client"
	"github.com/delicious-go/delicious/internal/config"
)

var (
	configPath string
	endpoint   string
	username   string
	password   string
	debug      bool
	timeout    time.Duration
)

func dbg(v interface{}) {
	if !debug {
		return
	}
	log.Debug().Interface("data", v).Msg("debug output")
}

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "delicious",
		Short:         "Command line client for the Delicious bookmark service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
			log.Logger = log.Output(zerolog.ConsoleWriter{
				Out:        os.Stderr,
				TimeFormat: "2006-01-02 15:04:05",
				NoColor:    true,
			})

			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				log.Debug().Msg("debug logging enabled")
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/delicious/config.toml)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "API root, overrides the config file")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "Account name, overrides the config file")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "Account password, overrides the config file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output, including HTTP dumps")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Deadline for the whole command")

	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newLastUpdateCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newTagsCmd())
	rootCmd.AddCommand(newRenameTagCmd())
	rootCmd.AddCommand(newDeleteTagCmd())
	rootCmd.AddCommand(newBundlesCmd())
	rootCmd.AddCommand(newSetBundleCmd())
	rootCmd.AddCommand(newDeleteBundleCmd())

	return rootCmd
}

// loadConfig reads the layered configuration and applies the global flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if username != "" {
		cfg.Username = username
	}
	if password != "" {
		cfg.Password = password
	}
	cfg.Debug = cfg.Debug || debug
	return cfg, cfg.Validate()
}

// withClient runs fn with a configured client and a context bounded by
// --timeout. The client is closed afterwards, draining queued writes.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error, extra ...client.Option) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := client.New(append(cfg.ClientOptions(), extra...)...)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	return fn(ctx, c)
}

// printJSON writes v to the command's output as indented JSON.
func printJSON(cmd *cobra.Command, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}

// printDone acknowledges a write.
func printDone(cmd *cobra.Command, fields map[string]string) error {
	out := map[string]string{"result": "done"}
	for k, v := range fields {
		out[k] = v
	}
	return printJSON(cmd, out)
}
