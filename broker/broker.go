// Package broker publishes JSON messages to RabbitMQ. The service only ever
// publishes; consumers (mailers, SMS gateways) live elsewhere.
package broker

import (
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Broker wraps a RabbitMQ connection with a declared durable queue.
type Broker struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	url     string
}

// NewBroker dials RabbitMQ and declares the durable queue.
func NewBroker(url, queueName string) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Printf("Failed to connect to RabbitMQ: %v", err)
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("Failed to open channel: %v", err)
		conn.Close()
		return nil, err
	}

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		log.Printf("Failed to declare queue: %v", err)
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Broker{conn: conn, channel: ch, queue: q, url: url}, nil
}

func (b *Broker) ensureConnection() error {
	if b.conn != nil && !b.conn.IsClosed() {
		return nil
	}

	conn, err := amqp.Dial(b.url)
	if err != nil {
		log.Printf("Failed to reconnect to RabbitMQ: %v", err)
		return err
	}
	b.conn = conn

	b.channel, err = conn.Channel()
	if err != nil {
		log.Printf("Failed to open channel on reconnect: %v", err)
		conn.Close()
		return err
	}

	q, err := b.channel.QueueDeclare(b.queue.Name, true, false, false, false, nil)
	if err != nil {
		log.Printf("Failed to re-declare queue: %v", err)
		b.channel.Close()
		b.conn.Close()
		return err
	}
	b.queue = q
	return nil
}

// Publish marshals the message as JSON and sends it to the queue.
func (b *Broker) Publish(message interface{}) error {
	if err := b.ensureConnection(); err != nil {
		return err
	}

	body, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal message: %v", err)
		return err
	}

	err = b.channel.Publish("", b.queue.Name, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		log.Printf("Failed to publish message: %v", err)
		return err
	}
	return nil
}

// Close shuts down the channel and connection.
func (b *Broker) Close() error {
	if b.channel != nil {
		if err := b.channel.Close(); err != nil {
			log.Printf("Failed to close channel: %v", err)
			return err
		}
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
