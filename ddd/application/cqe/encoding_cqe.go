package cqe

import "encoding-service/pkg/errno"

// CreateEncodingReq 创建编码作业请求。
// 属主以 (类型, ID, 属性名) 弱引用方式出现，source_value 是属性的当前原始值。
type CreateEncodingReq struct {
	OwnerType      string `json:"owner_type" binding:"required"`      // 属主类型标签
	OwnerID        string `json:"owner_id" binding:"required"`        // 属主ID
	OwnerAttribute string `json:"owner_attribute" binding:"required"` // 属主上的源字段名
	SourceValue    string `json:"source_value" binding:"required"`    // 源字段原始值（URL或根相对路径）
}

func (req *CreateEncodingReq) Validate() error {
	if req.OwnerType == "" {
		return errno.ErrOwnerTypeRequired
	}
	if req.OwnerID == "" {
		return errno.ErrOwnerIDRequired
	}
	if req.OwnerAttribute == "" {
		return errno.ErrOwnerAttrRequired
	}
	if req.SourceValue == "" {
		return errno.ErrSourceValueRequired
	}
	return nil
}

// TransitionReq 手工状态流转请求。
// JobUUID来自路径参数，不参与请求体绑定校验，由Validate兜底。
type TransitionReq struct {
	JobUUID string `uri:"job_uuid" json:"-"`
	Status  string `json:"status" binding:"required"`
	Message string `json:"message"`
}

func (req *TransitionReq) Validate() error {
	if req.JobUUID == "" {
		return errno.ErrJobUUIDRequired
	}
	if req.Status == "" {
		return errno.ErrInvalidEncodeStatus
	}
	return nil
}

// DeleteOwnerEncodingsReq 属主删除时的级联清理请求
type DeleteOwnerEncodingsReq struct {
	OwnerType string `uri:"owner_type" binding:"required"`
	OwnerID   string `uri:"owner_id" binding:"required"`
}

func (req *DeleteOwnerEncodingsReq) Validate() error {
	if req.OwnerType == "" {
		return errno.ErrOwnerTypeRequired
	}
	if req.OwnerID == "" {
		return errno.ErrOwnerIDRequired
	}
	return nil
}
