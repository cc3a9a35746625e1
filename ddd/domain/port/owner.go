package port

// Owner 属主实体能力接口。
// 编码作业只需要从属主读出身份和源字段值，不关心属主的其余形态。
type Owner interface {
	// Identify 返回多态引用 (类型标签, ID)
	Identify() (ownerType string, ownerID string)
	// ReadAttribute 读取命名字段上的原始源值
	ReadAttribute(name string) (string, error)
}
