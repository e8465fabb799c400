package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore 本地磁盘实现，开发与测试环境使用
// 对象键映射为根目录下的相对路径
type LocalStore struct {
	root string
}

// NewLocalStore 创建本地对象存储，根目录不存在时自动创建
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("本地存储目录不能为空")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// resolve 将对象键映射为磁盘路径，并拒绝越出根目录的键
func (s *LocalStore) resolve(key string) (string, error) {
	if key == "" {
		return "", errors.New("对象键不能为空")
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("非法的对象键: %s", key)
	}
	return path, nil
}

// Put 写入对象
func (s *LocalStore) Put(_ context.Context, key string, r io.Reader) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建对象目录失败: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("写入对象 %s 失败: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("写入对象 %s 失败: %w", key, err)
	}
	return f.Close()
}

// Get 按键读取对象
func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("读取对象 %s 失败: %w", key, err)
	}
	return data, nil
}

// Delete 按键删除对象
func (s *LocalStore) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除对象 %s 失败: %w", key, err)
	}
	return nil
}
