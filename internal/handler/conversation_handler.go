// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"it-helpdesk-go/internal/model"
	"it-helpdesk-go/internal/repository"
	"it-helpdesk-go/internal/service"
	"it-helpdesk-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 处理与会话相关的 API 请求。
type ConversationHandler struct {
	conversationService service.ConversationService
	chatService         service.ChatService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(conversationService service.ConversationService, chatService service.ChatService) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		chatService:         chatService,
	}
}

// CreateConversationRequest 定义了创建会话 API 的请求体结构。标题可选。
type CreateConversationRequest struct {
	Title string `json:"title"`
}

// AddMessageRequest 定义了追加消息 API 的请求体结构。
type AddMessageRequest struct {
	Content     string             `json:"content"`
	Sender      string             `json:"sender"`
	Attachments []model.Attachment `json:"attachments"`
}

// ListConversations 返回全部会话，按创建顺序排列。
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	conversations := h.conversationService.ListConversations()
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    conversations,
	})
}

// GetConversation 按 ID 返回单个会话。
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	conversation, err := h.conversationService.GetConversation(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    conversation,
	})
}

// CreateConversation 创建一个新会话。
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载",
		})
		return
	}

	conversation := h.conversationService.CreateConversation(req.Title)
	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "success",
		"data":    conversation,
	})
}

// AddMessage 向会话追加一条消息。sender 为 user 时会同步生成助手回复。
func (h *ConversationHandler) AddMessage(c *gin.Context) {
	var req AddMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载",
		})
		return
	}

	sender := model.Sender(req.Sender)
	if !sender.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "sender 必须是 user 或 assistant",
		})
		return
	}
	if req.Content == "" && len(req.Attachments) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "消息内容和附件不能同时为空",
		})
		return
	}

	conversation, err := h.chatService.SendMessage(c.Request.Context(), c.Param("id"), req.Content, sender, req.Attachments)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"message": "success",
		"data":    conversation,
	})
}

// DeleteConversation 删除整个会话。
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	if err := h.conversationService.DeleteConversation(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearConversation 将会话消息重置为初始欢迎状态。
func (h *ConversationHandler) ClearConversation(c *gin.Context) {
	if err := h.conversationService.ClearConversation(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "会话已清空",
	})
}

// respondError 把业务错误映射为对应的 HTTP 状态码。
// 内部错误细节只记录日志，不向调用方泄露。
func (h *ConversationHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "会话不存在",
		})
	case errors.Is(err, service.ErrAttachmentUnreadable), errors.Is(err, service.ErrInvalidImage):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "附件无效或无法读取",
		})
	case errors.Is(err, service.ErrEmptyInput):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "消息内容不能为空",
		})
	case errors.Is(err, service.ErrUpstream):
		log.Error("AI 服务调用失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "AI 服务暂时不可用",
		})
	default:
		log.Error("会话请求处理失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "服务器内部错误",
		})
	}
}
