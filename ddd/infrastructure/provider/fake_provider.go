package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"encoding-service/ddd/domain/gateway"
	"encoding-service/ddd/domain/vo"
	"encoding-service/pkg/config"
	"encoding-service/pkg/errno"
)

// FakeProvider 开发联调用的假服务商：不做真实编码，
// 提交即受理，输出为对象存储里的预期键位。
type FakeProvider struct {
	formats []config.OutputFormat
}

// NewFakeProvider 创建假服务商网关
func NewFakeProvider(cfg *config.Config) *FakeProvider {
	return &FakeProvider{formats: cfg.Encode.OutputFormats}
}

// Name 服务商标识
func (p *FakeProvider) Name() string { return "fake" }

// Submit 立即受理，生成假的服务商作业ID
func (p *FakeProvider) Submit(ctx context.Context, sourceURL, jobUUID string) (*gateway.SubmitReceipt, error) {
	receipt := &gateway.SubmitReceipt{
		ProviderJobID: "fake-" + uuid.New().String(),
		Outputs:       vo.NewOutputs(),
	}
	for _, f := range p.formats {
		receipt.Outputs.Set(f.Label, fmt.Sprintf("encodings/%s/%s.%s", jobUUID, f.Label, f.Label))
	}
	return receipt, nil
}

// fakeNotification 统一格式的回调载荷，便于curl手工触发
type fakeNotification struct {
	ProviderJobID string      `json:"provider_job_id"`
	JobUUID       string      `json:"job_uuid"`
	Status        string      `json:"status"`
	Message       string      `json:"message"`
	Outputs       *vo.Outputs `json:"outputs"`
}

// DecodeNotification 解析统一格式回调
func (p *FakeProvider) DecodeNotification(payload []byte) (*gateway.Notification, error) {
	var note fakeNotification
	if err := json.Unmarshal(payload, &note); err != nil {
		return nil, errno.NewBizError(errno.ErrNotificationInvalid, err)
	}
	if note.ProviderJobID == "" && note.JobUUID == "" {
		return nil, errno.ErrNotificationInvalid
	}

	status, err := vo.NewEncodeStatusFromString(note.Status)
	if err != nil {
		return nil, errno.ErrNotificationInvalid
	}

	n := &gateway.Notification{
		ProviderJobID: note.ProviderJobID,
		JobUUID:       note.JobUUID,
		Status:        status,
		Message:       note.Message,
	}
	if note.Outputs != nil && !note.Outputs.IsEmpty() {
		n.Outputs = note.Outputs
	}
	return n, nil
}

// Ack 统一应答
func (p *FakeProvider) Ack() interface{} {
	return map[string]string{"status": "ok"}
}
