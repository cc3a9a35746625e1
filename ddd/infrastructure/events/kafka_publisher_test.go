package events

import (
	"context"
	"testing"

	"encoding-service/ddd/domain/entity"
	"encoding-service/pkg/config"
)

// Kafka未启用时发布器持有nil客户端，发布必须是无害的空操作
func TestPublishStatusChangedWithoutClientIsNoOp(t *testing.T) {
	p := NewKafkaPublisher(nil, &config.Config{})

	job := entity.NewEncodingJobEntity("article", "42", "video")
	p.PublishStatusChanged(context.Background(), job, "pending", "queued", "")
}
