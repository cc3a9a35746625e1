package events

import (
	"context"
	"encoding/json"
	"time"

	"encoding-service/ddd/domain/entity"
	"encoding-service/pkg/config"
	"encoding-service/pkg/kafka"
	"encoding-service/pkg/logger"
)

// StatusChangedEvent 作业状态变更事件，发给下游消费方
type StatusChangedEvent struct {
	JobUUID        string `json:"job_uuid"`
	OwnerType      string `json:"owner_type"`
	OwnerID        string `json:"owner_id"`
	OwnerAttribute string `json:"owner_attribute"`
	FromStatus     string `json:"from_status"`
	ToStatus       string `json:"to_status"`
	Message        string `json:"message,omitempty"`
	ProviderJobID  string `json:"provider_job_id,omitempty"`
	OccurredAt     int64  `json:"occurred_at"`
}

// Publisher 状态变更事件发布器
type Publisher interface {
	PublishStatusChanged(ctx context.Context, job *entity.EncodingJobEntity, from, to, message string)
}

// KafkaPublisher 基于Kafka的事件发布实现。发布失败只记日志，不影响主流程。
type KafkaPublisher struct {
	client *kafka.Client
	topic  string
}

// NewKafkaPublisher 创建Kafka事件发布器
func NewKafkaPublisher(client *kafka.Client, cfg *config.Config) *KafkaPublisher {
	return &KafkaPublisher{
		client: client,
		topic:  cfg.Kafka.Topics.EncodingEvents,
	}
}

// PublishStatusChanged 发布一条状态变更事件，按作业UUID分区
func (p *KafkaPublisher) PublishStatusChanged(ctx context.Context, job *entity.EncodingJobEntity, from, to, message string) {
	if p == nil || p.client == nil {
		return
	}

	event := StatusChangedEvent{
		JobUUID:        job.JobUUID(),
		OwnerType:      job.OwnerType(),
		OwnerID:        job.OwnerID(),
		OwnerAttribute: job.OwnerAttribute(),
		FromStatus:     from,
		ToStatus:       to,
		Message:        message,
		ProviderJobID:  job.ProviderJobID(),
		OccurredAt:     time.Now().Unix(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		logger.Errorf("Encode status event marshal failed job_uuid=%s error=%v", job.JobUUID(), err)
		return
	}

	if err := p.client.Produce(ctx, p.topic, []byte(job.JobUUID()), value); err != nil {
		logger.Errorf("Encode status event publish failed job_uuid=%s topic=%s error=%v", job.JobUUID(), p.topic, err)
	}
}
