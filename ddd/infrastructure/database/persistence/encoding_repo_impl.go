package persistence

import (
	"context"
	"time"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/repo"
	"encoding-service/ddd/domain/vo"
	"encoding-service/ddd/infrastructure/database/convertor"
	"encoding-service/ddd/infrastructure/database/dao"
)

type encodingRepositoryImpl struct {
	jobDao    *dao.EncodingJobDAO
	convertor *convertor.EncodingJobConvertor
}

func NewEncodingRepository() repo.EncodingJobRepository {
	return &encodingRepositoryImpl{
		jobDao:    dao.NewEncodingJobDAO(),
		convertor: convertor.NewEncodingJobConvertor(),
	}
}

// NewEncodingRepositoryWith 供注入DAO使用
func NewEncodingRepositoryWith(jobDao *dao.EncodingJobDAO) repo.EncodingJobRepository {
	return &encodingRepositoryImpl{
		jobDao:    jobDao,
		convertor: convertor.NewEncodingJobConvertor(),
	}
}

func (r *encodingRepositoryImpl) SupersedeAndCreate(ctx context.Context, job *entity.EncodingJobEntity) error {
	jobPo, err := r.convertor.ToPO(job)
	if err != nil {
		return err
	}
	return r.jobDao.SupersedeAndCreate(ctx, jobPo)
}

func (r *encodingRepositoryImpl) GetByJobUUID(ctx context.Context, jobUUID string) (*entity.EncodingJobEntity, error) {
	jobPo, err := r.jobDao.FindByJobUUID(ctx, jobUUID)
	if err != nil {
		return nil, err
	}
	return r.convertor.ToEntity(jobPo), nil
}

func (r *encodingRepositoryImpl) GetByOwnerKey(ctx context.Context, ownerType, ownerID, ownerAttribute string) (*entity.EncodingJobEntity, error) {
	jobPo, err := r.jobDao.FindByOwnerKey(ctx, ownerType, ownerID, ownerAttribute)
	if err != nil {
		return nil, err
	}
	return r.convertor.ToEntity(jobPo), nil
}

func (r *encodingRepositoryImpl) GetByProviderJobID(ctx context.Context, providerJobID string) (*entity.EncodingJobEntity, error) {
	jobPo, err := r.jobDao.FindByProviderJobID(ctx, providerJobID)
	if err != nil {
		return nil, err
	}
	return r.convertor.ToEntity(jobPo), nil
}

func (r *encodingRepositoryImpl) StoreProviderJob(ctx context.Context, jobUUID, providerJobID string, outputs *vo.Outputs) error {
	raw, err := outputs.ToJSON()
	if err != nil {
		return err
	}
	return r.jobDao.StoreProviderJob(ctx, jobUUID, vo.EncodeStatusQueued.String(), providerJobID, raw)
}

func (r *encodingRepositoryImpl) UpdateStatus(ctx context.Context, jobUUID string, status vo.EncodeStatus, message string) error {
	return r.jobDao.UpdateStatus(ctx, jobUUID, status.String(), message)
}

func (r *encodingRepositoryImpl) UpdateStatusAndOutputs(ctx context.Context, jobUUID string, status vo.EncodeStatus, message string, outputs *vo.Outputs) error {
	raw, err := outputs.ToJSON()
	if err != nil {
		return err
	}
	return r.jobDao.UpdateStatusAndOutputs(ctx, jobUUID, status.String(), message, raw)
}

func (r *encodingRepositoryImpl) DeleteByOwner(ctx context.Context, ownerType, ownerID string) error {
	return r.jobDao.DeleteByOwner(ctx, ownerType, ownerID)
}

func (r *encodingRepositoryImpl) QueryPendingBefore(ctx context.Context, cutoffUnix int64, limit int) ([]*entity.EncodingJobEntity, error) {
	jobs, err := r.jobDao.QueryPendingBefore(ctx, time.Unix(cutoffUnix, 0), limit)
	if err != nil {
		return nil, err
	}
	return r.convertor.ToEntities(jobs), nil
}
