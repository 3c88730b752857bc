package app

import (
	weave "github.com/iov-one/trustd"
)

// Tx carries a single message to the engine.
type Tx struct {
	Msg weave.Msg
}

var _ weave.Tx = (*Tx)(nil)

// GetMsg implements weave.Tx.
func (tx *Tx) GetMsg() (weave.Msg, error) {
	return tx.Msg, nil
}
