package server

import (
	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/app"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/store"
	"github.com/spf13/cobra"
)

// ValidateCmd checks that the given genesis files can be loaded by the
// application.
func ValidateCmd(ini weave.Initializer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [genesis files...]",
		Short: "Validate genesis files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ValidateGenesis(ini, args)
		},
	}
}

// ValidateGenesis loads every genesis into a throwaway store and returns the
// first failure.
func ValidateGenesis(ini weave.Initializer, genesisPaths []string) error {
	for _, path := range genesisPaths {
		if err := validateGenesis(ini, path); err != nil {
			return errors.Wrap(err, path)
		}
	}
	return nil
}

func validateGenesis(ini weave.Initializer, genesisPath string) error {
	gen, err := app.LoadGenesis(genesisPath)
	if err != nil {
		return err
	}

	// Use in memory store because we want to discard the result.
	db := store.MemStore()

	if err := ini.FromGenesis(gen.AppOptions, db); err != nil {
		return errors.Wrap(err, "cannot initialize from genesis")
	}
	return nil
}
