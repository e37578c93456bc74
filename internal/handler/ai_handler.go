package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"it-helpdesk-go/internal/service"
	"it-helpdesk-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AIHandler 处理直接面向 AI 网关的 API 请求。
type AIHandler struct {
	aiService service.AIService
}

// NewAIHandler 创建一个新的 AIHandler 实例。
func NewAIHandler(aiService service.AIService) *AIHandler {
	return &AIHandler{aiService: aiService}
}

// ProcessTextRequest 定义了文本处理 API 的请求体结构。
type ProcessTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// multiModalInput 描述 inputs 字段中的一个有序分段。
// 图片/音频分段通过 fileField 引用同一表单中的上传文件。
type multiModalInput struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	FileField string `json:"fileField"`
}

// ProcessText 处理纯文本请求。
func (h *AIHandler) ProcessText(c *gin.Context) {
	var req ProcessTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "text 字段是必填的",
		})
		return
	}

	response, err := h.aiService.ProcessText(c.Request.Context(), req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"response": response},
	})
}

// ProcessImage 处理图片分析请求，表单字段为 image，可选 prompt。
func (h *AIHandler) ProcessImage(c *gin.Context) {
	data, ok := h.readFormFile(c, "image", "image 文件是必填的")
	if !ok {
		return
	}

	response, err := h.aiService.ProcessImage(c.Request.Context(), data, c.PostForm("prompt"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"response": response},
	})
}

// ProcessAudio 处理音频请求，表单字段为 audio，可选 prompt。音频转写尚未实现。
func (h *AIHandler) ProcessAudio(c *gin.Context) {
	data, ok := h.readFormFile(c, "audio", "audio 文件是必填的")
	if !ok {
		return
	}

	response, err := h.aiService.ProcessAudio(c.Request.Context(), data, c.PostForm("prompt"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"response": response},
	})
}

// ProcessMultiModal 处理多模态请求。
// 表单字段 inputs 是 JSON 数组，描述有序分段；二进制分段通过 fileField 引用上传文件。
func (h *AIHandler) ProcessMultiModal(c *gin.Context) {
	inputsJSON := c.PostForm("inputs")
	if inputsJSON == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "inputs 字段是必填的",
		})
		return
	}

	var inputs []multiModalInput
	if err := json.Unmarshal([]byte(inputsJSON), &inputs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "inputs 不是合法的 JSON 数组",
		})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的 multipart 表单",
		})
		return
	}

	parts := make([]service.MultiModalPart, 0, len(inputs))
	for _, input := range inputs {
		part := service.MultiModalPart{Type: input.Type, Text: input.Content}
		if input.Type == service.PartTypeImage || input.Type == service.PartTypeAudio {
			headers := form.File[input.FileField]
			if len(headers) == 0 {
				c.JSON(http.StatusBadRequest, gin.H{
					"code":    http.StatusBadRequest,
					"message": "找不到字段 " + input.FileField + " 引用的上传文件",
				})
				return
			}
			data, readErr := readFileHeader(headers[0])
			if readErr != nil {
				log.Error("读取多模态上传文件失败", readErr)
				c.JSON(http.StatusInternalServerError, gin.H{
					"code":    http.StatusInternalServerError,
					"message": "服务器内部错误",
				})
				return
			}
			part.Data = data
		}
		parts = append(parts, part)
	}

	response, err := h.aiService.ProcessMultiModal(c.Request.Context(), parts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    gin.H{"response": response},
	})
}

// readFormFile 读取单个表单文件的完整内容，失败时直接写出 400 响应。
func (h *AIHandler) readFormFile(c *gin.Context, field, missingMessage string) ([]byte, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": missingMessage,
		})
		return nil, false
	}
	data, err := readFileHeader(header)
	if err != nil {
		log.Error("读取上传文件失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "服务器内部错误",
		})
		return nil, false
	}
	return data, true
}

// readFileHeader 打开并读取一个 multipart 文件头的全部字节。
func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// respondError 把 AI 网关错误映射为对应的 HTTP 状态码。
func (h *AIHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyInput), errors.Is(err, service.ErrInvalidImage), errors.Is(err, service.ErrUnsupportedPart):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "输入无效: " + err.Error(),
		})
	case errors.Is(err, service.ErrUpstream):
		log.Error("AI 服务调用失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "AI 服务暂时不可用",
		})
	default:
		log.Error("AI 请求处理失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "服务器内部错误",
		})
	}
}
