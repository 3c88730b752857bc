package weave

import (
	"reflect"

	"github.com/iov-one/trustd/errors"
)

// LoadMsg extracts the message represented by given transaction into given
// destination. Before returning message validation method is called.
func LoadMsg(tx Tx, destination interface{}) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot get transaction message")
	}
	if msg == nil {
		return errors.Wrap(errors.ErrInvalidMsg, "transaction carries no message")
	}

	// Big mambo jumbo to ensure the destination is a pointer to the same
	// type as the message.
	msgVal := reflect.ValueOf(msg)
	destVal := reflect.ValueOf(destination)
	if destVal.Kind() != reflect.Ptr || destVal.IsNil() {
		return errors.Wrapf(errors.ErrInvalidType, "destination must be a non nil pointer, got %T", destination)
	}
	if msgVal.Kind() == reflect.Ptr {
		msgVal = msgVal.Elem()
	}
	if !msgVal.Type().AssignableTo(destVal.Elem().Type()) {
		return errors.Wrapf(errors.ErrInvalidType, "want %T message, got %T", destination, msg)
	}
	destVal.Elem().Set(msgVal)

	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}
	return nil
}
