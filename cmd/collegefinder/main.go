package main

import (
	"errors"
	"os"

	"github.com/SanteonNL/collegefinder/cmd/collegefinder/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

func main() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		log := newLogger(os.Stderr, zerolog.ErrorLevel)
		log.Error().Stack().Err(err).Msg("Command failed")
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for input the user can fix, 1 for everything else.
func exitCode(err error) int {
	var invalid *types.InvalidFilterError
	if errors.As(err, &invalid) {
		return 2
	}
	return 1
}
