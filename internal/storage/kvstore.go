package storage

import "context"

// StorageStatus 键值写入结果，用显式状态代替异常控制流
type StorageStatus int

const (
	StorageOK StorageStatus = iota
	StorageQuotaExceeded
	StorageError
)

func (s StorageStatus) String() string {
	switch s {
	case StorageOK:
		return "ok"
	case StorageQuotaExceeded:
		return "quota_exceeded"
	default:
		return "error"
	}
}

// KVStore 持久化键值存储抽象（分块缓存等组件的底层存储）
type KVStore interface {
	// Get 读取键值，第二个返回值表示键是否存在
	Get(ctx context.Context, key string) (string, bool, error)

	// Set 写入键值，容量不足时返回StorageQuotaExceeded
	Set(ctx context.Context, key, value string) (StorageStatus, error)

	// Remove 删除键，键不存在时不报错
	Remove(ctx context.Context, key string) error

	// Keys 枚举指定前缀下的所有键（用于批量清理和统计）
	Keys(ctx context.Context, prefix string) ([]string, error)
}
