package resource

import (
	"encoding-service/pkg/config"
	"encoding-service/pkg/kafka"
	"encoding-service/pkg/logger"
	"encoding-service/pkg/manager"
)

type KafkaResource struct{}

type KafkaResourcePlugin struct{}

func (p *KafkaResourcePlugin) Name() string { return "kafka" }

func (p *KafkaResourcePlugin) MustCreateResource() manager.Resource { return &KafkaResource{} }

func (r *KafkaResource) MustOpen() {
	cfg := config.GetGlobalConfig()
	if cfg != nil && !cfg.Kafka.Enabled {
		logger.Infof("Kafka disabled by config, event publishing is off")
		return
	}
	cli := kafka.DefaultClient()
	cli.MustOpen()

	topic := cfg.Kafka.Topics.EncodingEvents
	if err := cli.EnsureTopic(topic, 3, 1); err != nil {
		logger.Warnf("Ensure kafka topic failed topic=%s error=%v", topic, err)
	}
}

func (r *KafkaResource) Close() { kafka.DefaultClient().Close() }
