package weave

import (
	"github.com/tendermint/tendermint/libs/common"
)

// CheckResult captures any non-error check result
// to make sure people use error for error cases.
type CheckResult struct {
	// Data is a machine-parseable return value
	Data []byte
	// Log is human-readable informational string
	Log string
}

// DeliverResult captures any non-error result
// to make sure people use error for error cases
type DeliverResult struct {
	// Data is a machine-parseable return value, like id of created entity
	Data []byte
	// Log is human-readable informational string
	Log string
	// Tags, if present, are used to index and search the operation history
	Tags []common.KVPair
	// Events are the notifications emitted by the operation. They are
	// published only once the operation is committed.
	Events []Event
}

// Event is an observable notification emitted by a handler.
type Event struct {
	// Kind names the notification, for example "trust_created".
	Kind string
	// Attributes carry the notification payload.
	Attributes []common.KVPair
}

// NewEvent builds an event of the given kind from a list of key/value
// pairs. Values are formatted by the caller.
func NewEvent(kind string, keyvals ...string) Event {
	if len(keyvals)%2 != 0 {
		panic("odd number of event attributes")
	}
	ev := Event{Kind: kind}
	for i := 0; i < len(keyvals); i += 2 {
		ev.Attributes = append(ev.Attributes, common.KVPair{
			Key:   []byte(keyvals[i]),
			Value: []byte(keyvals[i+1]),
		})
	}
	return ev
}

// Attr returns the value of the first attribute stored under given key.
func (e Event) Attr(key string) (string, bool) {
	for _, kv := range e.Attributes {
		if string(kv.Key) == key {
			return string(kv.Value), true
		}
	}
	return "", false
}
