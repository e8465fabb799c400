package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
)

// GCSStore Google Cloud Storage 实现
// 依赖 Application Default Credentials（gcloud auth application-default login）
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore 创建 GCS 对象存储
func NewGCSStore(bucket string) (*GCSStore, error) {
	client, err := gcs.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("创建 GCS 客户端失败: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Put 写入对象
func (s *GCSStore) Put(ctx context.Context, key string, r io.Reader) error {
	// 单次上传超时上限
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("写入对象 %s 失败: %w", key, err)
	}
	// Close 完成实际提交
	if err := w.Close(); err != nil {
		return fmt.Errorf("提交对象 %s 失败: %w", key, err)
	}
	return nil
}

// Get 按键读取对象
func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("读取对象 %s 失败: %w", key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("读取对象 %s 内容失败: %w", key, err)
	}
	return data, nil
}

// Delete 按键删除对象
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("删除对象 %s 失败: %w", key, err)
	}
	return nil
}

// Close 关闭底层客户端
func (s *GCSStore) Close() error {
	return s.client.Close()
}
