package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// memoryObject 保存一个对象的内容和 MIME 类型。
type memoryObject struct {
	data        []byte
	contentType string
}

// memoryStore 是进程内的 ObjectStore 实现，用于未配置 MinIO 的部署和测试。
// 内容随进程重启丢失，与会话存储的生命周期一致。
type memoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemoryStore 创建一个新的内存对象存储。
func NewMemoryStore() ObjectStore {
	return &memoryStore{objects: make(map[string]memoryObject)}
}

// Put 将对象保存到内存中，返回本地访问路径形式的 URL。
func (s *memoryStore) Put(_ context.Context, objectKey string, reader io.Reader, _ int64, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.objects[objectKey] = memoryObject{data: buf.Bytes(), contentType: contentType}
	s.mu.Unlock()

	return "/files/" + objectKey, nil
}

// Get 按对象键读取对象内容。
func (s *memoryStore) Get(_ context.Context, objectKey string) ([]byte, string, error) {
	s.mu.RLock()
	obj, ok := s.objects[objectKey]
	s.mu.RUnlock()
	if !ok {
		return nil, "", ErrObjectNotFound
	}
	return obj.data, obj.contentType, nil
}
