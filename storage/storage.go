package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"studyportal/config"
)

// ErrObjectNotFound 对象不存在
var ErrObjectNotFound = errors.New("对象不存在")

// ObjectStore 对象存储抽象
// 键格式 <category>/<随机串>.<扩展名>，写入与按键读取，不提供列举（列表走元数据表）
type ObjectStore interface {
	// Put 写入对象，已存在的键会被覆盖
	Put(ctx context.Context, key string, r io.Reader) error
	// Get 按键读取对象全部内容，不存在返回 ErrObjectNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete 按键删除对象，不存在视为成功
	Delete(ctx context.Context, key string) error
}

// New 按配置创建学习资料对象存储
func New(cfg *config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case "local", "":
		return NewLocalStore(cfg.Bucket)
	case "gcs":
		return NewGCSStore(cfg.Bucket)
	default:
		return nil, fmt.Errorf("不支持的存储驱动: %s", cfg.Driver)
	}
}
