package trust

import (
	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/gconf"
	"github.com/iov-one/trustd/x"
)

const configPkg = "trust"

// Configuration is the registry wide configuration, loaded from genesis.
type Configuration struct {
	// Arbitrator is the only identity allowed to resolve disputes.
	Arbitrator weave.Address `json:"arbitrator"`
	// FeeCollector is credited the fee of every paid trust.
	FeeCollector weave.Address `json:"fee_collector"`
	// FeePercent is the part of the amount taken as a fee, 0 to 100.
	FeePercent int32 `json:"fee_percent"`
}

var _ gconf.Configuration = (*Configuration)(nil)

// Marshal implements weave.Persistent.
func (c *Configuration) Marshal() ([]byte, error) { return x.MarshalBinary(c) }

// Unmarshal implements weave.Persistent.
func (c *Configuration) Unmarshal(raw []byte) error { return x.UnmarshalBinary(raw, c) }

// Validate ensures the configuration is usable.
func (c *Configuration) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Arbitrator", validateParty(c.Arbitrator))
	errs = errors.AppendField(errs, "FeeCollector", validateParty(c.FeeCollector))
	if c.FeePercent < 0 || c.FeePercent > 100 {
		errs = errors.AppendField(errs, "FeePercent",
			errors.Wrapf(errors.ErrInvalidInput, "%d not in [0, 100]", c.FeePercent))
	}
	return errs
}

// Fee returns floor(amount * FeePercent / 100). The result is computed
// without overflowing for any non negative amount.
func (c *Configuration) Fee(amount int64) int64 {
	p := int64(c.FeePercent)
	return (amount/100)*p + (amount%100)*p/100
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, configPkg, &conf); err != nil {
		return nil, errors.Wrap(err, "load trust configuration")
	}
	return &conf, nil
}
