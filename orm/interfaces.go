package orm

import (
	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/x"
)

// Model is implemented by any entity that can be stored in a bucket.
type Model interface {
	weave.Persistent
	x.Validater
	Copy() Model
}

// Object is what is stored in the bucket
// Key is joined with the prefix to set the full key
// Value is the data stored
type Object interface {
	Keyed
	Cloneable
	// Validate returns error if the object is not in a valid
	// state to save to the db (eg. field missing, out of range, ...)
	x.Validater
	Value() Model
}

// Reader defines an interface that allows reading objects from the db
type Reader interface {
	Get(db weave.ReadOnlyKVStore, key []byte) (Object, error)
}

// Keyed is anything that can identify itself
type Keyed interface {
	Key() []byte
	SetKey([]byte)
}

// Cloneable will create a new object that can be loaded into
type Cloneable interface {
	Clone() Object
}
