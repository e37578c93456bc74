package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"it-helpdesk-go/internal/config"
	"it-helpdesk-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioStore 是基于 MinIO 的 ObjectStore 实现。
type minioStore struct {
	client *minio.Client
	cfg    config.MinIOConfig
}

// NewMinIOStore 初始化 MinIO 客户端并确保指定的存储桶存在。
func NewMinIOStore(cfg config.MinIOConfig) (ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}

	// 检查存储桶是否存在，如果不存在则创建
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("检查 MinIO 存储桶失败: %w", err)
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建 MinIO 存储桶失败: %w", err)
		}
	}

	log.Info("MinIO 客户端初始化成功")
	return &minioStore{client: client, cfg: cfg}, nil
}

// Put 将对象写入存储桶，并返回带签名的访问 URL。
func (s *minioStore) Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.cfg.BucketName, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("写入对象 %s 失败: %w", objectKey, err)
	}

	expiry := time.Duration(s.cfg.URLExpireHours) * time.Hour
	presignedURL, err := s.client.PresignedGetObject(ctx, s.cfg.BucketName, objectKey, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成对象 %s 的签名 URL 失败: %w", objectKey, err)
	}
	return presignedURL.String(), nil
}

// Get 按对象键读取完整的对象内容。
func (s *minioStore) Get(ctx context.Context, objectKey string) ([]byte, string, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.BucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("读取对象 %s 失败: %w", objectKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("读取对象 %s 内容失败: %w", objectKey, err)
	}
	stat, err := obj.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("获取对象 %s 元数据失败: %w", objectKey, err)
	}
	return data, stat.ContentType, nil
}
