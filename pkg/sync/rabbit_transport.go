package sync

import (
	"log"

	"github.com/bytedance/sonic"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/matst80/slask-inventory/pkg/inventory"
)

// RabbitTransportMaster publishes store changes so replica processes can
// mirror the in-memory item set.
type RabbitTransportMaster struct {
	RabbitConfig
	connection *amqp.Connection
	channel    *amqp.Channel
}

func (t *RabbitTransportMaster) Connect() error {
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
	for _, topic := range []string{t.ItemsUpsertedTopic, t.ItemDeletedTopic} {
		if _, err := ch.QueueDeclare(
			topic,
			true,
			false,
			false,
			false,
			nil,
		); err != nil {
			return err
		}
	}
	return nil
}

func (t *RabbitTransportMaster) Close() {
	if t.channel != nil && !t.channel.IsClosed() {
		t.channel.Close()
	}
	if t.connection != nil && !t.connection.IsClosed() {
		t.connection.Close()
	}
}

func (t *RabbitTransportMaster) send(topic string, data any) error {
	bytes, err := sonic.Marshal(data)
	if err != nil {
		return err
	}
	return t.channel.Publish(
		"",
		topic,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        bytes,
		},
	)
}

func (t *RabbitTransportMaster) SendItemsUpserted(items []inventory.Item) error {
	return t.send(t.ItemsUpsertedTopic, items)
}

func (t *RabbitTransportMaster) SendItemDeleted(id int) error {
	return t.send(t.ItemDeletedTopic, id)
}

// RabbitMasterChangeHandler adapts the master transport to the store's
// change hook. Publish failures are logged, never propagated to the request.
type RabbitMasterChangeHandler struct {
	Master *RabbitTransportMaster
}

func (r *RabbitMasterChangeHandler) ItemsUpserted(items []inventory.Item) {
	if len(items) == 0 {
		return
	}
	if err := r.Master.SendItemsUpserted(items); err != nil {
		log.Printf("Failed to send item upserts %v", err)
	}
}

func (r *RabbitMasterChangeHandler) ItemDeleted(id int) {
	if err := r.Master.SendItemDeleted(id); err != nil {
		log.Printf("Failed to send item deleted %v", err)
	}
}
