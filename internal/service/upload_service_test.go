package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"strings"
	"testing"

	"it-helpdesk-go/internal/model"
	"it-helpdesk-go/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFileHeaders 用 multipart 编码再解码的方式构造真实的 FileHeader。
func buildFileHeaders(t *testing.T, files map[string][]byte) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&buf, writer.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	return form.File["files"]
}

func TestSaveAttachments(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewUploadService(store, 10*1024*1024)

	headers := buildFileHeaders(t, map[string][]byte{"screenshot.png": pngBytes})
	atts, err := svc.SaveAttachments(context.Background(), headers)
	require.NoError(t, err)
	require.Len(t, atts, 1)

	att := atts[0]
	assert.Equal(t, "screenshot.png", att.Name)
	assert.Equal(t, model.AttachmentImage, att.Type)
	assert.Equal(t, int64(len(pngBytes)), att.Size)
	assert.NotEmpty(t, att.ID)
	assert.True(t, strings.HasPrefix(att.ObjectKey, "attachments/"))
	assert.True(t, strings.HasSuffix(att.ObjectKey, ".png"))

	// 对象确实写入了存储
	data, contentType, err := store.Get(context.Background(), att.ObjectKey)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, "image/png", contentType)
}

func TestSaveAttachmentsClassifiesByContent(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewUploadService(store, 10*1024*1024)

	// WAV 头 → audio，纯文本 → file
	wav := append([]byte("RIFF\x24\x00\x00\x00WAVE"), make([]byte, 16)...)
	headers := buildFileHeaders(t, map[string][]byte{
		"voice.wav":  wav,
		"syslog.txt": []byte("Jan 01 kernel: oops"),
	})

	atts, err := svc.SaveAttachments(context.Background(), headers)
	require.NoError(t, err)
	require.Len(t, atts, 2)

	byName := map[string]model.Attachment{}
	for _, a := range atts {
		byName[a.Name] = a
	}
	assert.Equal(t, model.AttachmentAudio, byName["voice.wav"].Type)
	assert.Equal(t, model.AttachmentFile, byName["syslog.txt"].Type)
}

func TestSaveAttachmentsNoFiles(t *testing.T) {
	svc := NewUploadService(storage.NewMemoryStore(), 10*1024*1024)

	_, err := svc.SaveAttachments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestSaveAttachmentsFileTooLarge(t *testing.T) {
	svc := NewUploadService(storage.NewMemoryStore(), 8)

	headers := buildFileHeaders(t, map[string][]byte{"big.bin": make([]byte, 64)})
	_, err := svc.SaveAttachments(context.Background(), headers)
	require.ErrorIs(t, err, ErrFileTooLarge)
	assert.Contains(t, err.Error(), "big.bin")
}

func TestObjectExtensionFallsBackToDetected(t *testing.T) {
	assert.Equal(t, ".png", objectExtension("shot.png", ".bin"))
	assert.Equal(t, ".png", objectExtension("noext", ".png"))
}
