package queue

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	amqp "github.com/rabbitmq/amqp091-go"
)

type DriverRabbitMQConfig struct {
	Host string
	Pass string
	Port int
	User string
}

func (config DriverRabbitMQConfig) url() string {
	return (&url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(config.User, config.Pass),
		Host:   net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
	}).String()
}

func NewDriverRabbitMQ(config DriverRabbitMQConfig) (Driver, error) {
	connection, err := amqp.Dial(config.url())
	if err != nil {
		return nil, err
	}

	channel, err := connection.Channel()
	if err != nil {
		_ = connection.Close()
		return nil, err
	}

	return &driverRabbitMQ{
		connection: connection,
		channel:    channel,
	}, nil
}

type driverRabbitMQ struct {
	connection *amqp.Connection
	channel    *amqp.Channel
}

func (driver *driverRabbitMQ) CreateQueue(ctx context.Context, queueName string) error {
	_, err := driver.channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)

	return err
}

func (driver *driverRabbitMQ) Publish(ctx context.Context, queueName string, payload []byte) error {
	return driver.channel.PublishWithContext(
		ctx,
		"",        // exchange
		queueName, // routing key
		true,      // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         payload,
		},
	)
}

// Consume acknowledges a delivery once handler succeeds. A failed delivery is
// returned to the queue before the error is reported.
func (driver *driverRabbitMQ) Consume(
	ctx context.Context,
	queueName string,
	handler func(ctx context.Context, payload []byte) error,
) error {
	// Cancels the server side consumer on every return path
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	deliveries, err := driver.channel.ConsumeWithContext(
		ctx,
		queueName, // queue
		"",        // consumer
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, open := <-deliveries:
			if !open {
				return fmt.Errorf("queue %s: delivery channel closed", queueName)
			}

			if err := handler(ctx, delivery.Body); err != nil {
				_ = delivery.Nack(false, true)
				return err
			}

			if err := delivery.Ack(false); err != nil {
				return err
			}
		}
	}
}
