package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"encoding-service/ddd/infrastructure/database/po"
	"encoding-service/internal/resource"
)

type EncodingJobDAO struct {
	db *gorm.DB
}

func NewEncodingJobDAO() *EncodingJobDAO {
	return &EncodingJobDAO{db: resource.DefaultMysqlResource().MainDB()}
}

// NewEncodingJobDAOWith 供测试或外部注入连接使用
func NewEncodingJobDAOWith(db *gorm.DB) *EncodingJobDAO {
	return &EncodingJobDAO{db: db}
}

// SupersedeAndCreate 同一事务内删除属主键下的旧作业并插入新作业。
// 唯一索引 idx_owner_key 兜底两个并发创建互删对方后各自插入的情形。
func (d *EncodingJobDAO) SupersedeAndCreate(ctx context.Context, job *po.EncodingJob) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("owner_type = ? AND owner_id = ? AND owner_attribute = ?",
				job.OwnerType, job.OwnerID, job.OwnerAttribute).
			Delete(&po.EncodingJob{}).Error; err != nil {
			return err
		}
		return tx.Create(job).Error
	})
}

func (d *EncodingJobDAO) FindByJobUUID(ctx context.Context, jobUUID string) (*po.EncodingJob, error) {
	var job po.EncodingJob
	err := d.db.WithContext(ctx).Where("job_uuid = ?", jobUUID).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (d *EncodingJobDAO) FindByOwnerKey(ctx context.Context, ownerType, ownerID, ownerAttribute string) (*po.EncodingJob, error) {
	var job po.EncodingJob
	err := d.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ? AND owner_attribute = ?", ownerType, ownerID, ownerAttribute).
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (d *EncodingJobDAO) FindByProviderJobID(ctx context.Context, providerJobID string) (*po.EncodingJob, error) {
	var job po.EncodingJob
	err := d.db.WithContext(ctx).Where("provider_job_id = ?", providerJobID).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// StoreProviderJob 受理回执落库：status、provider_job_id、outputs一条UPDATE。
// provider_job_id只写一次，已有值时用SQL表达式保留旧值；
// 空outputs不覆盖已有输出（回执先丢、回调先到的场景）。
func (d *EncodingJobDAO) StoreProviderJob(ctx context.Context, jobUUID, status, providerJobID, outputs string) error {
	update := map[string]interface{}{
		"status":          status,
		"provider_job_id": gorm.Expr("IF(provider_job_id = '', ?, provider_job_id)", providerJobID),
		"updated_at":      time.Now(),
	}
	if outputs != "" {
		update["outputs"] = outputs
	}
	return d.db.WithContext(ctx).Model(&po.EncodingJob{}).
		Where("job_uuid = ?", jobUUID).
		Updates(update).Error
}

// UpdateStatus 状态与说明一条UPDATE写入
func (d *EncodingJobDAO) UpdateStatus(ctx context.Context, jobUUID, status, message string) error {
	update := map[string]interface{}{
		"status":     status,
		"message":    message,
		"updated_at": time.Now(),
	}
	return d.db.WithContext(ctx).Model(&po.EncodingJob{}).
		Where("job_uuid = ?", jobUUID).
		Updates(update).Error
}

// UpdateStatusAndOutputs 状态、说明、输出一条UPDATE写入
func (d *EncodingJobDAO) UpdateStatusAndOutputs(ctx context.Context, jobUUID, status, message, outputs string) error {
	update := map[string]interface{}{
		"status":     status,
		"message":    message,
		"outputs":    outputs,
		"updated_at": time.Now(),
	}
	return d.db.WithContext(ctx).Model(&po.EncodingJob{}).
		Where("job_uuid = ?", jobUUID).
		Updates(update).Error
}

// DeleteByOwner 属主删除时级联清理其全部作业
func (d *EncodingJobDAO) DeleteByOwner(ctx context.Context, ownerType, ownerID string) error {
	return d.db.WithContext(ctx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Delete(&po.EncodingJob{}).Error
}

// QueryPendingBefore 查询创建时间早于截止点且仍为pending的作业
func (d *EncodingJobDAO) QueryPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*po.EncodingJob, error) {
	var jobs []*po.EncodingJob
	q := d.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", "pending", cutoff).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// AutoMigrate 建表与索引
func (d *EncodingJobDAO) AutoMigrate() error {
	return d.db.AutoMigrate(&po.EncodingJob{})
}
