package gateway

import (
	"context"

	"encoding-service/ddd/domain/vo"
)

// EncodingProvider 外部编码服务商网关。
// 同一时刻只有一个实现处于激活状态（由配置选择），
// 作业生命周期与存储层对具体实现无感知。
type EncodingProvider interface {
	// Name 服务商标识，用于配置选择与日志
	Name() string

	// Submit 向服务商发起一次异步编码。
	// 同步失败（网络/鉴权）返回错误；成功时用受理回执更新作业记录。
	// 本调用自身不做重试。
	Submit(ctx context.Context, sourceURL, jobUUID string) (*SubmitReceipt, error)

	// DecodeNotification 把服务商私有的回调载荷映射为统一通知。
	// 无法识别的载荷返回错误，由上层转成非致命应答，避免服务商无限重投。
	DecodeNotification(payload []byte) (*Notification, error)

	// Ack 回调端点应答给服务商的值
	Ack() interface{}
}

// SubmitReceipt 服务商对提交的同步受理回执
type SubmitReceipt struct {
	ProviderJobID string
	// Outputs 服务商受理时给出的初始输出表，可为空
	Outputs *vo.Outputs
}

// Notification 统一化之后的服务商回调
type Notification struct {
	// ProviderJobID 服务商侧作业ID
	ProviderJobID string
	// JobUUID 透传回来的本服务作业UUID，可为空
	JobUUID string
	Status  vo.EncodeStatus
	Message string
	// Outputs 回调附带的输出表，nil表示本次回调不更新输出
	Outputs *vo.Outputs
}
