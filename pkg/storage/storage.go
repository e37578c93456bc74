// Package storage 提供了附件字节的对象存储能力（MinIO 或进程内内存）。
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound 表示请求的对象在存储中不存在。
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore 定义了附件对象存储的接口。
// Put 返回对象的访问 URL；Get 按对象键取回字节与其 MIME 类型。
type ObjectStore interface {
	Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error)
	Get(ctx context.Context, objectKey string) ([]byte, string, error)
}
