package cmd

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/mikaelmello/pingtrace/core"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	envFile  string
	verbose  bool
	logLevel string

	// sessionOpts are appended to the options of every session, tests use them to replace
	// the network.
	sessionOpts []core.Option
}

func newRootCmd(sessionOpts ...core.Option) *cobra.Command {
	g := &globalOptions{sessionOpts: sessionOpts}

	rootCmd := &cobra.Command{
		Use:   "pingtrace",
		Short: "pingtrace, ping and traceroute in Go",
		Long:  "pingtrace is a Go implementation of the ping and traceroute utilities over raw ICMP sockets",

		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(g.envFile)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.envFile, "env-file", "", "file with PINGTRACE_* variables, defaults to .env when present")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "log at debug level")
	flags.StringVar(&g.logLevel, "log-level", "", "log level (panic, fatal, error, warn, info, debug, trace)")

	rootCmd.AddCommand(newPingCmd(g), newTraceCmd(g))
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// loadEnvFile loads path into the environment. Without a path, .env is loaded if it exists.
func loadEnvFile(path string) error {
	if path != "" {
		return godotenv.Load(path)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// settings returns the settings from the environment with the logging flags applied.
func (g *globalOptions) settings() (*core.Settings, error) {
	settings, err := core.LoadSettings()
	if err != nil {
		return nil, err
	}

	if g.logLevel != "" {
		level, err := log.ParseLevel(g.logLevel)
		if err != nil {
			return nil, err
		}
		settings.LoggingLevel = uint32(level)
	}
	if g.verbose {
		settings.LoggingLevel = uint32(log.DebugLevel)
	}

	return settings, nil
}
