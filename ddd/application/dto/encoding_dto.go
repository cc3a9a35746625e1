package dto

import (
	"time"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/vo"
)

// EncodingJobDto 编码作业数据传输对象
type EncodingJobDto struct {
	JobUUID        string      `json:"job_uuid"`
	OwnerType      string      `json:"owner_type"`
	OwnerID        string      `json:"owner_id"`
	OwnerAttribute string      `json:"owner_attribute"`
	Status         string      `json:"status"`
	Message        string      `json:"message,omitempty"`
	ProviderJobID  string      `json:"provider_job_id,omitempty"`
	Outputs        *vo.Outputs `json:"outputs,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// NewEncodingJobDto 从实体创建DTO
func NewEncodingJobDto(e *entity.EncodingJobEntity) *EncodingJobDto {
	if e == nil {
		return nil
	}
	d := &EncodingJobDto{
		JobUUID:        e.JobUUID(),
		OwnerType:      e.OwnerType(),
		OwnerID:        e.OwnerID(),
		OwnerAttribute: e.OwnerAttribute(),
		Status:         e.Status().String(),
		Message:        e.Message(),
		ProviderJobID:  e.ProviderJobID(),
		CreatedAt:      e.CreatedAt(),
		UpdatedAt:      e.UpdatedAt(),
	}
	if !e.Outputs().IsEmpty() {
		d.Outputs = e.Outputs()
	}
	return d
}

// RenderableSourceDto 可渲染视频源
type RenderableSourceDto struct {
	MimeType string `json:"mime_type"`
	URL      string `json:"url"`
}

// RenderableSourcesDto 作业的可渲染视频源列表，顺序即存储顺序
type RenderableSourcesDto struct {
	JobUUID string                `json:"job_uuid"`
	Status  string                `json:"status"`
	Sources []RenderableSourceDto `json:"sources"`
}

// NewRenderableSourcesDto 从实体与投影结果创建DTO
func NewRenderableSourcesDto(e *entity.EncodingJobEntity, sources []vo.RenderableSource) *RenderableSourcesDto {
	d := &RenderableSourcesDto{
		JobUUID: e.JobUUID(),
		Status:  e.Status().String(),
		Sources: make([]RenderableSourceDto, 0, len(sources)),
	}
	for _, s := range sources {
		d.Sources = append(d.Sources, RenderableSourceDto{MimeType: s.MimeType, URL: s.URL})
	}
	return d
}
