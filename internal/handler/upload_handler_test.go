package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"it-helpdesk-go/internal/model"
	"it-helpdesk-go/internal/service"
	"it-helpdesk-go/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUploadRouter(maxFileSize int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	uploadService := service.NewUploadService(storage.NewMemoryStore(), maxFileSize)
	r.POST("/api/v1/upload", NewUploadHandler(uploadService).Upload)
	return r
}

func TestUploadEndpoint(t *testing.T) {
	r := newUploadRouter(10 * 1024 * 1024)

	w, env := doMultipart(t, r, "/api/v1/upload", nil, map[string][]byte{"files": pngBytes})
	require.Equal(t, http.StatusOK, w.Code)

	var atts []model.Attachment
	require.NoError(t, json.Unmarshal(env.Data, &atts))
	require.Len(t, atts, 1)
	assert.Equal(t, model.AttachmentImage, atts[0].Type)
	assert.NotEmpty(t, atts[0].URL)
	assert.NotEmpty(t, atts[0].ObjectKey)
}

func TestUploadNoFiles(t *testing.T) {
	r := newUploadRouter(10 * 1024 * 1024)

	w, env := doMultipart(t, r, "/api/v1/upload", map[string]string{"other": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "没有上传任何文件", env.Message)
}

func TestUploadFileTooLarge(t *testing.T) {
	r := newUploadRouter(4)

	w, env := doMultipart(t, r, "/api/v1/upload", nil, map[string][]byte{"files": pngBytes})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "文件超出大小限制", env.Message)
}
