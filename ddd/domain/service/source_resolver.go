package service

import (
	"net/url"
	"strings"

	"encoding-service/ddd/domain/port"
	"encoding-service/pkg/errno"
)

// SourceResolver 计算作业的规范输入URL。
// 只在创建路径上调用：通知路径没有请求上下文，拿不到origin。
type SourceResolver struct{}

// NewSourceResolver 创建源解析器
func NewSourceResolver() *SourceResolver {
	return &SourceResolver{}
}

// Source 读取属主指定字段的原始值：
// 自带scheme的值原样返回，否则视为根相对路径，拼上当前请求的origin。
func (r *SourceResolver) Source(owner port.Owner, attribute, origin string) (string, error) {
	raw, err := owner.ReadAttribute(attribute)
	if err != nil {
		return "", errno.NewBizError(errno.ErrOwnerAttrUnreadable, err)
	}
	if raw == "" {
		return "", errno.ErrSourceValueRequired
	}

	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		return raw, nil
	}

	origin = strings.TrimRight(origin, "/")
	if origin == "" {
		return "", errno.ErrInvalidParam
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return origin + raw, nil
}
