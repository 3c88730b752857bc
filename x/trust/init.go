package trust

import (
	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/gconf"
)

// Initializer fulfils the Initializer interface to load data from the genesis
// file
type Initializer struct{}

var _ weave.Initializer = Initializer{}

// FromGenesis stores the registry configuration declared under
// "conf"/"trust" in the genesis.
func (Initializer) FromGenesis(opts weave.Options, db weave.KVStore) error {
	var conf Configuration
	return gconf.InitConfig(db, opts, configPkg, &conf)
}
