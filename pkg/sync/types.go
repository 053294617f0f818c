package sync

// RabbitConfig names the topics and broker endpoint used to fan out store
// changes to replica processes.
type RabbitConfig struct {
	ItemsUpsertedTopic string
	ItemDeletedTopic   string
	Url                string
	VHost              string
}

func DefaultRabbitConfig(url, vhost string) RabbitConfig {
	return RabbitConfig{
		ItemsUpsertedTopic: "item_upserted",
		ItemDeletedTopic:   "item_deleted",
		Url:                url,
		VHost:              vhost,
	}
}
