package convertor

import (
	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/vo"
	"encoding-service/ddd/infrastructure/database/po"
)

// EncodingJobConvertor 编码作业转换器
type EncodingJobConvertor struct{}

// NewEncodingJobConvertor 创建编码作业转换器
func NewEncodingJobConvertor() *EncodingJobConvertor {
	return &EncodingJobConvertor{}
}

// ToEntity 将PO转换为Entity
func (c *EncodingJobConvertor) ToEntity(p *po.EncodingJob) *entity.EncodingJobEntity {
	if p == nil {
		return nil
	}

	status, err := vo.NewEncodeStatusFromString(p.Status)
	if err != nil {
		status = vo.EncodeStatusPending
	}

	outputs, err := vo.OutputsFromJSON(p.Outputs)
	if err != nil {
		outputs = vo.NewOutputs()
	}

	return entity.NewEncodingJobEntityWithDetails(
		p.Id,
		p.JobUUID,
		p.OwnerType,
		p.OwnerID,
		p.OwnerAttribute,
		status,
		p.Message,
		p.ProviderJobID,
		outputs,
		p.CreatedAt,
		p.UpdatedAt,
	)
}

// ToPO 将Entity转换为PO
func (c *EncodingJobConvertor) ToPO(e *entity.EncodingJobEntity) (*po.EncodingJob, error) {
	outputs, err := e.Outputs().ToJSON()
	if err != nil {
		return nil, err
	}
	return &po.EncodingJob{
		BaseModel: po.BaseModel{
			Id:        e.ID(),
			CreatedAt: e.CreatedAt(),
			UpdatedAt: e.UpdatedAt(),
		},
		JobUUID:        e.JobUUID(),
		OwnerType:      e.OwnerType(),
		OwnerID:        e.OwnerID(),
		OwnerAttribute: e.OwnerAttribute(),
		Status:         e.Status().String(),
		Message:        e.Message(),
		ProviderJobID:  e.ProviderJobID(),
		Outputs:        outputs,
	}, nil
}

// ToEntities 批量将PO转换为Entity
func (c *EncodingJobConvertor) ToEntities(pos []*po.EncodingJob) []*entity.EncodingJobEntity {
	if pos == nil {
		return nil
	}
	entities := make([]*entity.EncodingJobEntity, 0, len(pos))
	for _, p := range pos {
		if p != nil {
			entities = append(entities, c.ToEntity(p))
		}
	}
	return entities
}
