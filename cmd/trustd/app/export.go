package app

import (
	"bytes"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/x/ledger"
	"github.com/iov-one/trustd/x/trust"
)

// Dump is a JSON friendly snapshot of the whole state.
type Dump struct {
	ChainID  string         `json:"chain_id"`
	Height   int64          `json:"height"`
	Stats    *trust.Stats   `json:"stats"`
	Trusts   []*trust.Trust `json:"trusts"`
	Balances []BalanceDump  `json:"balances"`
}

// BalanceDump is a single non empty account balance.
type BalanceDump struct {
	Account weave.Address `json:"account"`
	Amount  int64         `json:"amount"`
}

// Export reads all trusts and balances of the committed state.
func (n *Node) Export() (*Dump, error) {
	stats, err := n.Stats()
	if err != nil {
		return nil, err
	}
	dump := &Dump{
		ChainID: n.engine.ChainID(),
		Height:  n.engine.Height(),
		Stats:   stats,
	}

	models, err := n.engine.Query("/trusts", weave.PrefixQueryMod, nil)
	if err != nil {
		return nil, errors.Wrap(err, "query trusts")
	}
	for _, m := range models {
		var t trust.Trust
		if err := t.Unmarshal(m.Value); err != nil {
			return nil, errors.Wrapf(err, "trust %X", m.Key)
		}
		dump.Trusts = append(dump.Trusts, &t)
	}

	models, err = n.engine.Query("/balances", weave.PrefixQueryMod, nil)
	if err != nil {
		return nil, errors.Wrap(err, "query balances")
	}
	prefix := []byte(ledger.BalanceBucketName + ":")
	for _, m := range models {
		var b ledger.Balance
		if err := b.Unmarshal(m.Value); err != nil {
			return nil, errors.Wrapf(err, "balance %X", m.Key)
		}
		if b.Amount == 0 {
			continue
		}
		dump.Balances = append(dump.Balances, BalanceDump{
			Account: weave.Address(bytes.TrimPrefix(m.Key, prefix)),
			Amount:  b.Amount,
		})
	}
	return dump, nil
}
