package handler

import (
	"errors"
	"net/http"

	"it-helpdesk-go/internal/service"
	"it-helpdesk-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// UploadHandler 负责处理附件上传的 API 请求。
type UploadHandler struct {
	uploadService service.UploadService
}

// NewUploadHandler 创建一个新的 UploadHandler 实例。
func NewUploadHandler(uploadService service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Upload 处理多文件上传，表单字段为 files，返回附件元数据列表。
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的 multipart 表单",
		})
		return
	}

	attachments, err := h.uploadService.SaveAttachments(c.Request.Context(), form.File["files"])
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoFiles):
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "没有上传任何文件",
			})
		case errors.Is(err, service.ErrFileTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "文件超出大小限制",
			})
		default:
			log.Error("保存上传附件失败", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "服务器内部错误",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    attachments,
	})
}
