package weavetest

import weave "github.com/iov-one/trustd"

// Tx represents a single operation request, carrying one message.
type Tx struct {
	// Msg is the message that is to be processed by this transaction.
	Msg weave.Msg
	// Err if set is returned by any method call.
	Err error
}

var _ weave.Tx = (*Tx)(nil)

// GetMsg returns the carried message.
func (tx *Tx) GetMsg() (weave.Msg, error) {
	return tx.Msg, tx.Err
}

// Msg represents a weave message.
type Msg struct {
	// Path returned by the path method, consumed by the router.
	RoutePath string
	// Serialized represents the serialized form of this message.
	Serialized []byte
	// Err if set is returned by any method call.
	Err error
}

var _ weave.Msg = (*Msg)(nil)

// Path returns RoutePath.
func (m *Msg) Path() string {
	return m.RoutePath
}

// Unmarshal stores the raw data.
func (m *Msg) Unmarshal(b []byte) error {
	m.Serialized = b
	return m.Err
}

// Marshal returns the raw data.
func (m *Msg) Marshal() ([]byte, error) {
	return m.Serialized, m.Err
}

// Validate returns Err.
func (m *Msg) Validate() error {
	return m.Err
}
