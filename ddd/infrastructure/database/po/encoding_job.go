package po

// EncodingJob 编码作业持久化对象。
// (owner_type, owner_id, owner_attribute) 上的唯一索引保证同一属主字段
// 任意时刻至多一条作业，顶替写入靠它兜底并发创建。
type EncodingJob struct {
	BaseModel
	JobUUID        string `gorm:"column:job_uuid;type:varchar(36);uniqueIndex" json:"job_uuid"`
	OwnerType      string `gorm:"column:owner_type;type:varchar(100);uniqueIndex:idx_owner_key" json:"owner_type"`
	OwnerID        string `gorm:"column:owner_id;type:varchar(36);uniqueIndex:idx_owner_key" json:"owner_id"`
	OwnerAttribute string `gorm:"column:owner_attribute;type:varchar(100);uniqueIndex:idx_owner_key" json:"owner_attribute"`
	Status         string `gorm:"column:status;type:varchar(20);index" json:"status"`
	Message        string `gorm:"column:message;type:varchar(255)" json:"message"`
	ProviderJobID  string `gorm:"column:provider_job_id;type:varchar(100);index" json:"provider_job_id"`
	Outputs        string `gorm:"column:outputs;type:json" json:"outputs"`
}

// TableName 指定表名
func (EncodingJob) TableName() string {
	return "encoding_jobs"
}
