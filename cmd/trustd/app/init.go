package app

import (
	"encoding/json"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/app"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/x/trust"
)

// DefaultFeePercent is the fee written to a new genesis when none is given.
const DefaultFeePercent = 1

// GenesisOptions builds the application options of a new genesis.
func GenesisOptions(conf trust.Configuration) (weave.Options, error) {
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "trust configuration")
	}
	rawConf, err := json.Marshal(map[string]interface{}{
		"trust": conf,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal configuration")
	}
	return weave.Options{"conf": rawConf}, nil
}

// NewGenesis returns a genesis for given chain id with the registry
// configured.
func NewGenesis(chainID string, conf trust.Configuration) (*app.Genesis, error) {
	if !weave.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "chain id: %q", chainID)
	}
	opts, err := GenesisOptions(conf)
	if err != nil {
		return nil, err
	}
	return &app.Genesis{ChainID: chainID, AppOptions: opts}, nil
}
