package vo

import "encoding-service/pkg/errno"

// EncodeStatus 编码作业状态
type EncodeStatus string

const (
	// EncodeStatusPending 已创建，服务商尚未确认
	EncodeStatusPending EncodeStatus = "pending"
	// EncodeStatusQueued 服务商已确认受理
	EncodeStatusQueued EncodeStatus = "queued"
	// EncodeStatusProcessing 编码进行中
	EncodeStatusProcessing EncodeStatus = "processing"
	// EncodeStatusComplete 编码完成
	EncodeStatusComplete EncodeStatus = "complete"
	// EncodeStatusError 任意类型的错误
	EncodeStatusError EncodeStatus = "error"
	// EncodeStatusCancelled 用户已取消
	EncodeStatusCancelled EncodeStatus = "cancelled"
)

// NewEncodeStatusFromString 解析状态字符串，未知状态返回错误
func NewEncodeStatusFromString(s string) (EncodeStatus, error) {
	st := EncodeStatus(s)
	if !st.IsValid() {
		return "", errno.ErrInvalidEncodeStatus
	}
	return st, nil
}

// IsValid 检查状态是否在固定的六值集合内
func (s EncodeStatus) IsValid() bool {
	switch s {
	case EncodeStatusPending, EncodeStatusQueued, EncodeStatusProcessing,
		EncodeStatusComplete, EncodeStatusError, EncodeStatusCancelled:
		return true
	default:
		return false
	}
}

// String 返回状态字符串
func (s EncodeStatus) String() string {
	return string(s)
}

// IsTerminal 检查是否为终止状态。
// 终止状态之间以及终止到非终止的转换不做结构性限制，
// 保留人工纠正服务商误报的能力；需要限制的调用方自行用本方法把关。
func (s EncodeStatus) IsTerminal() bool {
	return s == EncodeStatusComplete || s == EncodeStatusError || s == EncodeStatusCancelled
}
