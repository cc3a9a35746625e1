package entity

import (
	"time"

	"github.com/google/uuid"

	"encoding-service/ddd/domain/vo"
)

// EncodingJobEntity 编码作业实体。
// 只持有属主的 (类型, ID, 属性名) 弱引用，不持有属主对象本身。
type EncodingJobEntity struct {
	id             uint64 // 数据库主键ID
	jobUUID        string
	ownerType      string
	ownerID        string
	ownerAttribute string
	status         vo.EncodeStatus
	message        string
	providerJobID  string
	outputs        *vo.Outputs
	createdAt      time.Time
	updatedAt      time.Time
}

// NewEncodingJobEntity 创建新的编码作业实体，初始状态pending
func NewEncodingJobEntity(ownerType, ownerID, ownerAttribute string) *EncodingJobEntity {
	now := time.Now()
	return &EncodingJobEntity{
		jobUUID:        uuid.New().String(),
		ownerType:      ownerType,
		ownerID:        ownerID,
		ownerAttribute: ownerAttribute,
		status:         vo.EncodeStatusPending,
		outputs:        vo.NewOutputs(),
		createdAt:      now,
		updatedAt:      now,
	}
}

// NewEncodingJobEntityWithDetails 从持久化数据恢复实体
func NewEncodingJobEntityWithDetails(
	id uint64,
	jobUUID, ownerType, ownerID, ownerAttribute string,
	status vo.EncodeStatus, message, providerJobID string,
	outputs *vo.Outputs, createdAt, updatedAt time.Time,
) *EncodingJobEntity {
	if outputs == nil {
		outputs = vo.NewOutputs()
	}
	return &EncodingJobEntity{
		id:             id,
		jobUUID:        jobUUID,
		ownerType:      ownerType,
		ownerID:        ownerID,
		ownerAttribute: ownerAttribute,
		status:         status,
		message:        message,
		providerJobID:  providerJobID,
		outputs:        outputs,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// ID 获取数据库主键ID
func (e *EncodingJobEntity) ID() uint64 { return e.id }

// JobUUID 获取作业UUID
func (e *EncodingJobEntity) JobUUID() string { return e.jobUUID }

// OwnerType 获取属主类型标签
func (e *EncodingJobEntity) OwnerType() string { return e.ownerType }

// OwnerID 获取属主ID
func (e *EncodingJobEntity) OwnerID() string { return e.ownerID }

// OwnerAttribute 获取属主上的源字段名
func (e *EncodingJobEntity) OwnerAttribute() string { return e.ownerAttribute }

// Status 获取当前状态
func (e *EncodingJobEntity) Status() vo.EncodeStatus { return e.status }

// Message 获取状态附带的说明信息
func (e *EncodingJobEntity) Message() string { return e.message }

// ProviderJobID 获取服务商作业ID，未受理前为空
func (e *EncodingJobEntity) ProviderJobID() string { return e.providerJobID }

// Outputs 获取输出集合
func (e *EncodingJobEntity) Outputs() *vo.Outputs { return e.outputs }

// CreatedAt 创建时间
func (e *EncodingJobEntity) CreatedAt() time.Time { return e.createdAt }

// UpdatedAt 更新时间
func (e *EncodingJobEntity) UpdatedAt() time.Time { return e.updatedAt }

// SetStatus 更新状态与说明
func (e *EncodingJobEntity) SetStatus(status vo.EncodeStatus, message string) {
	e.status = status
	e.message = message
	e.updatedAt = time.Now()
}

// AcceptProviderJob 记录服务商受理结果：状态置queued，作业ID只允许首次赋值
func (e *EncodingJobEntity) AcceptProviderJob(providerJobID string, outputs *vo.Outputs) {
	e.status = vo.EncodeStatusQueued
	if e.providerJobID == "" {
		e.providerJobID = providerJobID
	}
	if outputs != nil {
		e.outputs = outputs
	}
	e.updatedAt = time.Now()
}

// SetOutputs 覆盖输出集合
func (e *EncodingJobEntity) SetOutputs(outputs *vo.Outputs) {
	if outputs == nil {
		outputs = vo.NewOutputs()
	}
	e.outputs = outputs
	e.updatedAt = time.Now()
}
