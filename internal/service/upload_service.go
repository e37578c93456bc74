package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"it-helpdesk-go/internal/model"
	"it-helpdesk-go/pkg/log"
	"it-helpdesk-go/pkg/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// 上传相关的哨兵错误。
var (
	// ErrNoFiles 表示请求中没有任何文件。
	ErrNoFiles = errors.New("no files uploaded")
	// ErrFileTooLarge 表示单个文件超出了大小限制。
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// UploadService 定义了附件上传的业务接口。
type UploadService interface {
	// SaveAttachments 将上传的文件写入对象存储，返回对应的附件元数据列表。
	SaveAttachments(ctx context.Context, files []*multipart.FileHeader) ([]model.Attachment, error)
}

type uploadService struct {
	store       storage.ObjectStore
	maxFileSize int64
}

// NewUploadService 创建一个新的 UploadService 实例。maxFileSize 单位为字节。
func NewUploadService(store storage.ObjectStore, maxFileSize int64) UploadService {
	return &uploadService{store: store, maxFileSize: maxFileSize}
}

// SaveAttachments 逐个保存上传的文件。
// 任意一个文件失败时整体失败：附件要么全部可引用，要么一个都不返回。
func (s *uploadService) SaveAttachments(ctx context.Context, files []*multipart.FileHeader) ([]model.Attachment, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	attachments := make([]model.Attachment, 0, len(files))
	for _, header := range files {
		attachment, err := s.saveOne(ctx, header)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, attachment)
	}
	return attachments, nil
}

func (s *uploadService) saveOne(ctx context.Context, header *multipart.FileHeader) (model.Attachment, error) {
	if header.Size > s.maxFileSize {
		return model.Attachment{}, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, header.Filename, header.Size)
	}

	file, err := header.Open()
	if err != nil {
		return model.Attachment{}, fmt.Errorf("打开上传文件 %s 失败: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("读取上传文件 %s 失败: %w", header.Filename, err)
	}

	mime := mimetype.Detect(data)
	objectKey := "attachments/" + uuid.NewString() + objectExtension(header.Filename, mime.Extension())

	url, err := s.store.Put(ctx, objectKey, bytes.NewReader(data), int64(len(data)), mime.String())
	if err != nil {
		return model.Attachment{}, fmt.Errorf("保存附件 %s 失败: %w", header.Filename, err)
	}

	attachment := model.Attachment{
		ID:        uuid.NewString(),
		Name:      header.Filename,
		Type:      attachmentTypeOf(mime.String()),
		URL:       url,
		ObjectKey: objectKey,
		Size:      int64(len(data)),
	}
	log.Infof("附件已保存: name=%s, type=%s, objectKey=%s, size=%d", attachment.Name, attachment.Type, objectKey, attachment.Size)
	return attachment, nil
}

// attachmentTypeOf 按 MIME 类型归类附件：图片、音频或普通文件。
func attachmentTypeOf(mime string) model.AttachmentType {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return model.AttachmentImage
	case strings.HasPrefix(mime, "audio/"):
		return model.AttachmentAudio
	default:
		return model.AttachmentFile
	}
}

// objectExtension 优先使用原始文件名的扩展名，缺失时回退到按内容探测的扩展名。
func objectExtension(filename, detected string) string {
	if ext := filepath.Ext(filename); ext != "" {
		return ext
	}
	return detected
}
