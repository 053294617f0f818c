package sync

import (
	"log"

	"github.com/bytedance/sonic"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/matst80/slask-inventory/pkg/inventory"
	"github.com/matst80/slask-inventory/pkg/storage"
)

// RabbitTransportClient mirrors a master's store mutations into a local
// store. Used by read-only replicas.
type RabbitTransportClient struct {
	RabbitConfig
	ClientName string
	connection *amqp.Connection
	channel    *amqp.Channel
}

func (t *RabbitTransportClient) Connect(store *storage.ItemStore) error {
	conn, err := amqp.DialConfig(t.Url, amqp.Config{
		Vhost:      t.VHost,
		Properties: amqp.NewConnectionProperties(),
	})
	if err != nil {
		return err
	}
	t.connection = conn
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	t.channel = ch

	upserts, err := t.consume(t.ItemsUpsertedTopic)
	if err != nil {
		return err
	}
	log.Printf("Connected to rabbit upsert topic: %s", t.ItemsUpsertedTopic)
	go func(msgs <-chan amqp.Delivery) {
		for d := range msgs {
			if err := applyUpserts(store, d.Body); err != nil {
				log.Printf("Failed to apply upsert message %v", err)
			}
		}
	}(upserts)

	deletes, err := t.consume(t.ItemDeletedTopic)
	if err != nil {
		return err
	}
	log.Printf("Connected to rabbit delete topic: %s", t.ItemDeletedTopic)
	go func(msgs <-chan amqp.Delivery) {
		for d := range msgs {
			if err := applyDelete(store, d.Body); err != nil {
				log.Printf("Failed to apply delete message %v", err)
			}
		}
	}(deletes)

	return nil
}

func (t *RabbitTransportClient) Close() {
	if t.channel != nil && !t.channel.IsClosed() {
		t.channel.Close()
	}
	if t.connection != nil && !t.connection.IsClosed() {
		t.connection.Close()
	}
}

func (t *RabbitTransportClient) consume(topic string) (<-chan amqp.Delivery, error) {
	if _, err := t.channel.QueueDeclare(
		topic,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return nil, err
	}
	return t.channel.Consume(
		topic,
		t.ClientName,
		true,
		false,
		false,
		false,
		nil,
	)
}

func applyUpserts(store *storage.ItemStore, body []byte) error {
	items := make([]inventory.Item, 0)
	if err := sonic.Unmarshal(body, &items); err != nil {
		return err
	}
	for _, item := range items {
		store.Put(item)
	}
	return nil
}

func applyDelete(store *storage.ItemStore, body []byte) error {
	var id int
	if err := sonic.Unmarshal(body, &id); err != nil {
		return err
	}
	store.Remove(id)
	return nil
}
