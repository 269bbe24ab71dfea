package main

import (
	"io"
	"strings"

	"github.com/SanteonNL/collegefinder/cmd/collegefinder/config"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/resolver"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/scorecard"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/search"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once the root has run.
type app struct {
	envFile  string
	logLevel string

	cfg    *config.Config
	log    zerolog.Logger
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, log: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "collegefinder",
		Short:         "Search US colleges by state, tuition, graduation rate and name",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Optional dotenv file read before the environment")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(newSearchCmd(a))
	root.AddCommand(newServeCmd(a))
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return errors.Wrap(err, "loading configuration")
	}
	if a.logLevel != "" {
		if cfg.LogLevel, err = zerolog.ParseLevel(strings.ToLower(a.logLevel)); err != nil {
			return errors.Wrap(err, "parsing --log-level")
		}
	}
	a.cfg = cfg
	a.log = newLogger(a.stderr, cfg.LogLevel)
	return nil
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) { cw.Out = w })).
		Level(level).
		With().Timestamp().Caller().Logger()
}

// newService builds the search service on top of the upstream client. It
// fails with *types.ConfigurationError when the API key is missing.
func (a *app) newService(log zerolog.Logger) (*search.Service, error) {
	client, err := scorecard.NewClient(a.cfg.Scorecard(), log)
	if err != nil {
		return nil, err
	}
	return search.NewService(resolver.NewResolver(client, log), log), nil
}
