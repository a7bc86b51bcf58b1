package notify

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xenking/storefront-orders/internal/codec"
	"github.com/xenking/storefront-orders/internal/domain/order"
)

// Publisher is the subset of *amqp.Channel used by AMQPSender.
type Publisher interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPConfig selects the RabbitMQ destination. An empty URL disables AMQP.
type AMQPConfig struct {
	URL        string `default:"" usage:"RabbitMQ URL; empty logs notifications instead" flag:"amqp-url"`
	Exchange   string `default:"order.events" usage:"Topic exchange for order events"`
	RoutingKey string `default:"order.created" usage:"Routing key for created orders"`
}

// AMQPSender publishes each order as a persistent JSON message.
type AMQPSender struct {
	pub        Publisher
	exchange   string
	routingKey string
}

// NewAMQPSender declares the durable topic exchange and returns a sender.
func NewAMQPSender(pub Publisher, exchange, routingKey string) (*AMQPSender, error) {
	if err := pub.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, errors.Wrap(err, "declare exchange")
	}
	return &AMQPSender{pub: pub, exchange: exchange, routingKey: routingKey}, nil
}

func (s *AMQPSender) Send(ctx context.Context, o order.Order) error {
	var e jx.Encoder
	codec.EncodeOrder(&e, o)

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         s.routingKey,
		Body:         e.Bytes(),
	}
	if err := s.pub.PublishWithContext(ctx, s.exchange, s.routingKey, false, false, msg); err != nil {
		return errors.Wrap(err, "publish")
	}
	return nil
}

// DialAMQP connects to RabbitMQ and opens a channel. Closing the returned
// connection also closes the channel.
func DialAMQP(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dial")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, errors.Wrap(err, "open channel")
	}
	return conn, ch, nil
}
