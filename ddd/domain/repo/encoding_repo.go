package repo

import (
	"context"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/vo"
)

// EncodingJobRepository 编码作业仓储。
// 持久层是创建路径与通知路径之间唯一的同步点，所有写操作必须是原子的。
type EncodingJobRepository interface {
	// SupersedeAndCreate 在一个事务里删除同 (ownerType, ownerID, ownerAttribute)
	// 键的全部旧作业并插入新作业；配合唯一索引兜底并发创建。
	SupersedeAndCreate(ctx context.Context, job *entity.EncodingJobEntity) error

	// GetByJobUUID 按作业UUID查找，未找到返回 (nil, nil)
	GetByJobUUID(ctx context.Context, jobUUID string) (*entity.EncodingJobEntity, error)

	// GetByOwnerKey 按属主键查找当前作业，未找到返回 (nil, nil)
	GetByOwnerKey(ctx context.Context, ownerType, ownerID, ownerAttribute string) (*entity.EncodingJobEntity, error)

	// GetByProviderJobID 按服务商作业ID查找，未找到返回 (nil, nil)
	GetByProviderJobID(ctx context.Context, providerJobID string) (*entity.EncodingJobEntity, error)

	// StoreProviderJob 受理回执落库：status=queued、provider_job_id（仅首次赋值）、
	// outputs 三者一次UPDATE写入。
	StoreProviderJob(ctx context.Context, jobUUID, providerJobID string, outputs *vo.Outputs) error

	// UpdateStatus 状态与说明一次UPDATE写入
	UpdateStatus(ctx context.Context, jobUUID string, status vo.EncodeStatus, message string) error

	// UpdateStatusAndOutputs 状态、说明、输出一次UPDATE写入
	UpdateStatusAndOutputs(ctx context.Context, jobUUID string, status vo.EncodeStatus, message string, outputs *vo.Outputs) error

	// DeleteByOwner 属主删除时的级联清理
	DeleteByOwner(ctx context.Context, ownerType, ownerID string) error

	// QueryPendingBefore 查询滞留在pending超过截止时间的作业（巡检用）
	QueryPendingBefore(ctx context.Context, cutoffUnix int64, limit int) ([]*entity.EncodingJobEntity, error)
}
