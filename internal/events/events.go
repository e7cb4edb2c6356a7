// Package events publishes order lifecycle events.
package events

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/xenking/storefront/internal/domain/order"
)

// Event types.
const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

var _ order.Events = (*Kafka)(nil)

// producer is the subset of *kgo.Client used for publishing.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Kafka publishes order events to a single topic keyed by order id.
type Kafka struct {
	producer producer
	topic    string
	now      func() time.Time
}

// NewKafka returns a publisher writing to topic through client.
func NewKafka(client *kgo.Client, topic string) *Kafka {
	return &Kafka{producer: client, topic: topic, now: time.Now}
}

// NewClient connects a franz-go client to brokers.
func NewClient(brokers []string, topic string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create kafka client")
	}
	return client, nil
}

func (k *Kafka) OrderCreated(ctx context.Context, o *order.Order) error {
	return k.publish(ctx, TypeOrderCreated, o)
}

func (k *Kafka) OrderStatusChanged(ctx context.Context, o *order.Order) error {
	return k.publish(ctx, TypeOrderStatusChanged, o)
}

func (k *Kafka) publish(ctx context.Context, typ string, o *order.Order) error {
	rec := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(strconv.FormatInt(o.ID, 10)),
		Value: Encode(typ, o, k.now()),
		Headers: []kgo.RecordHeader{
			{Key: "type", Value: []byte(typ)},
		},
	}
	if err := k.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return errors.Wrapf(err, "produce %s", typ)
	}
	return nil
}

// Encode renders the JSON payload of an order event.
func Encode(typ string, o *order.Order, at time.Time) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("type")
	e.Str(typ)
	e.FieldStart("orderId")
	e.Int64(o.ID)
	e.FieldStart("customerId")
	e.Int64(o.CustomerID)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("total")
	e.Str(o.Total.StringFixed(2))
	e.FieldStart("items")
	e.ArrStart()
	for _, item := range o.Items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Int64(item.ProductID)
		e.FieldStart("quantity")
		e.Int(item.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("occurredAt")
	e.Str(at.UTC().Format(time.RFC3339Nano))
	e.ObjEnd()
	return e.Bytes()
}

// Nop discards events. It is used when no brokers are configured.
type Nop struct{}

var _ order.Events = Nop{}

func (Nop) OrderCreated(context.Context, *order.Order) error       { return nil }
func (Nop) OrderStatusChanged(context.Context, *order.Order) error { return nil }
