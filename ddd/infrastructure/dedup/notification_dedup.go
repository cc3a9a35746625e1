package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"encoding-service/pkg/logger"
	"encoding-service/pkg/redisclient"
)

// 去重键保留窗口。服务商的重投通常发生在分钟级，留一天足够。
const claimTTL = 24 * time.Hour

// NotificationDeduper 基于Redis的通知去重。
// 只是快路径：Redis不可用时放行，由存储层状态比对兜底幂等。
type NotificationDeduper struct {
	client *redisclient.Client
}

// NewNotificationDeduper 创建去重器，client可为nil（去重关闭）
func NewNotificationDeduper(client *redisclient.Client) *NotificationDeduper {
	return &NotificationDeduper{client: client}
}

// SeenBefore 判断同样的回调载荷是否已经处理过。
// 第一次抢占成功返回false，之后的相同载荷返回true。
func (d *NotificationDeduper) SeenBefore(ctx context.Context, providerName string, payload []byte) bool {
	if d == nil || d.client == nil {
		return false
	}

	key := claimKey(providerName, payload)
	claimed, err := d.client.Claim(ctx, key, claimTTL)
	if err != nil {
		logger.Warnf("Notification dedup claim failed, falling through key=%s error=%v", key, err)
		return false
	}
	return !claimed
}

// Forget 释放载荷的去重占位。
// 回调应用失败时必须调用，否则服务商重投同一载荷会被占位挡下，更新永久丢失。
func (d *NotificationDeduper) Forget(ctx context.Context, providerName string, payload []byte) {
	if d == nil || d.client == nil {
		return
	}

	key := claimKey(providerName, payload)
	if err := d.client.Release(ctx, key); err != nil {
		logger.Warnf("Notification dedup release failed key=%s error=%v", key, err)
	}
}

func claimKey(providerName string, payload []byte) string {
	sum := sha256.Sum256(payload)
	return "encoding:notify:" + providerName + ":" + hex.EncodeToString(sum[:])
}
