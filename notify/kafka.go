package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/app"
	"github.com/iov-one/trustd/errors"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer is the part of the kafka client used by the sink.
type Producer interface {
	ProduceSync(ctx weave.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Payload is the JSON document published for every event.
type Payload struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	ChainID    string            `json:"chain_id,omitempty"`
	Height     int64             `json:"height"`
	Time       string            `json:"time,omitempty"`
	Attributes map[string]string `json:"attributes"`
}

// KafkaSink publishes events to a single topic.
type KafkaSink struct {
	producer Producer
	topic    string
	chainID  string
	logger   log.Logger
}

var _ app.EventSink = (*KafkaSink)(nil)

// NewKafkaSink returns a sink producing to given topic. Every payload is
// stamped with the chain id.
func NewKafkaSink(p Producer, topic, chainID string, logger log.Logger) *KafkaSink {
	return &KafkaSink{
		producer: p,
		topic:    topic,
		chainID:  chainID,
		logger:   logger.With("module", "kafka"),
	}
}

// Dial connects to the brokers and returns a sink together with a function
// releasing the client.
func Dial(brokers []string, topic, chainID string, logger log.Logger) (*KafkaSink, func(), error) {
	if len(brokers) == 0 {
		return nil, nil, errors.Wrap(errors.ErrInvalidInput, "no kafka brokers")
	}
	if topic == "" {
		return nil, nil, errors.Wrap(errors.ErrInvalidInput, "no kafka topic")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "kafka client")
	}
	return NewKafkaSink(client, topic, chainID, logger), client.Close, nil
}

// Publish implements app.EventSink. All events of one operation are produced
// in a single batch.
func (s *KafkaSink) Publish(ctx weave.Context, height int64, events []weave.Event) error {
	records := make([]*kgo.Record, 0, len(events))
	for _, ev := range events {
		rec, err := Encode(ctx, s.chainID, height, ev)
		if err != nil {
			return err
		}
		rec.Topic = s.topic
		records = append(records, rec)
	}
	if err := s.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return errors.Wrapf(err, "produce %d records", len(records))
	}
	s.logger.Debug("events published", "height", height, "count", len(records))
	return nil
}

// Encode builds the kafka record of a single event.
func Encode(ctx weave.Context, chainID string, height int64, ev weave.Event) (*kgo.Record, error) {
	p := Payload{
		ID:         uuid.New().String(),
		Kind:       ev.Kind,
		ChainID:    chainID,
		Height:     height,
		Attributes: make(map[string]string, len(ev.Attributes)),
	}
	if t, err := weave.BlockTime(ctx); err == nil {
		p.Time = t.UTC().Format(time.RFC3339Nano)
	}
	for _, a := range ev.Attributes {
		p.Attributes[string(a.Key)] = string(a.Value)
	}

	value, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}
	return &kgo.Record{
		Key:   []byte(recordKey(ev)),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "kind", Value: []byte(ev.Kind)},
		},
	}, nil
}

func recordKey(ev weave.Event) string {
	if id, ok := ev.Attr("id"); ok {
		return "trust/" + id
	}
	if acc, ok := ev.Attr("account"); ok {
		return "account/" + acc
	}
	return ev.Kind
}
