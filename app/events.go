package app

import (
	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// EventSink receives notifications of committed operations.
type EventSink interface {
	Publish(ctx weave.Context, height int64, events []weave.Event) error
}

// LogSink writes every notification to a logger.
type LogSink struct {
	logger log.Logger
}

var _ EventSink = LogSink{}

// NewLogSink returns a sink logging at info level.
func NewLogSink(logger log.Logger) LogSink {
	return LogSink{logger: logger.With("module", "events")}
}

// Publish logs each event with its attributes.
func (s LogSink) Publish(ctx weave.Context, height int64, events []weave.Event) error {
	for _, ev := range events {
		keyvals := []interface{}{"kind", ev.Kind, "height", height}
		for _, a := range ev.Attributes {
			keyvals = append(keyvals, string(a.Key), string(a.Value))
		}
		s.logger.Info("event", keyvals...)
	}
	return nil
}

// MultiSink publishes to every sink, collecting all failures.
type MultiSink []EventSink

var _ EventSink = MultiSink(nil)

// Publish implements EventSink.
func (m MultiSink) Publish(ctx weave.Context, height int64, events []weave.Event) error {
	var errs error
	for _, s := range m {
		errs = errors.Append(errs, s.Publish(ctx, height, events))
	}
	return errs
}
