package server

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/app"
	"github.com/iov-one/trustd/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	FlagHome    = "home"
	FlagChainID = "chain_id"
)

// InitCmd will write a new genesis file into the home directory, along with
// proper app_options. The application passes in a function to generate
// proper options.
func InitCmd(gen GenOptions, logger log.Logger) *cobra.Command {
	cmd := initCmd{
		gen:    gen,
		logger: logger,
	}
	c := &cobra.Command{
		Use:   "init",
		Short: "Initialize the genesis file",
		RunE:  cmd.run,
	}
	c.Flags().String(FlagChainID, "", "chain id, generated when empty")
	_ = viper.BindPFlag(FlagChainID, c.Flags().Lookup(FlagChainID))
	return c
}

// GenOptions can parse command-line and flag to
// generate default app_options for the genesis file.
// This is application-specific
type GenOptions func(args []string) (weave.Options, error)

type initCmd struct {
	gen    GenOptions
	logger log.Logger
}

func (c initCmd) run(cmd *cobra.Command, args []string) error {
	genFile := GenesisFile(viper.GetString(FlagHome))
	if fileExists(genFile) {
		return errors.Wrapf(errors.ErrDuplicate, "genesis file %s", genFile)
	}

	chainID := viper.GetString(FlagChainID)
	if chainID == "" {
		chainID = fmt.Sprintf("trust-%v", common.RandStr(6))
	}
	gen := app.Genesis{ChainID: chainID}
	if c.gen != nil {
		options, err := c.gen(args)
		if err != nil {
			return err
		}
		gen.AppOptions = options
	}
	if !weave.IsValidChainID(gen.ChainID) {
		return errors.Wrapf(errors.ErrInvalidInput, "chain id %q", gen.ChainID)
	}

	if err := os.MkdirAll(filepath.Dir(genFile), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	out, err := json.MarshalIndent(gen, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal genesis")
	}
	if err := ioutil.WriteFile(genFile, out, 0600); err != nil {
		return errors.Wrap(err, "write genesis")
	}
	c.logger.Info("Generated genesis file", "path", genFile, "chain_id", chainID)
	return nil
}

// GenesisFile returns the location of the genesis file within home.
func GenesisFile(home string) string {
	return filepath.Join(home, "config", "genesis.json")
}

func fileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}
