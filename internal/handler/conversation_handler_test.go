package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"it-helpdesk-go/internal/model"
	"it-helpdesk-go/internal/repository"
	"it-helpdesk-go/internal/service"
	"it-helpdesk-go/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envelope 是统一响应结构，data 延迟解码。
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// stubAI 是 handler 层测试用的 AIService 替身。
type stubAI struct {
	reply string
	err   error
}

func (s *stubAI) ProcessText(_ context.Context, _ string) (string, error) {
	return s.reply, s.err
}

func (s *stubAI) ProcessImage(_ context.Context, _ []byte, _ string) (string, error) {
	return s.reply, s.err
}

func (s *stubAI) ProcessAudio(_ context.Context, _ []byte, _ string) (string, error) {
	return s.reply, s.err
}

func (s *stubAI) ProcessMultiModal(_ context.Context, _ []service.MultiModalPart) (string, error) {
	return s.reply, s.err
}

// newConversationRouter 搭建带会话路由的测试引擎。
func newConversationRouter(ai service.AIService) (*gin.Engine, repository.ConversationRepository) {
	gin.SetMode(gin.TestMode)
	repo := repository.NewConversationRepository("", "")
	conversationService := service.NewConversationService(repo)
	chatService := service.NewChatService(repo, ai, storage.NewMemoryStore())

	r := gin.New()
	h := NewConversationHandler(conversationService, chatService)
	conversations := r.Group("/api/v1/conversations")
	{
		conversations.GET("", h.ListConversations)
		conversations.POST("", h.CreateConversation)
		conversations.GET("/:id", h.GetConversation)
		conversations.DELETE("/:id", h.DeleteConversation)
		conversations.POST("/:id/clear", h.ClearConversation)
		conversations.POST("/:id/messages", h.AddMessage)
	}
	return r, repo
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestCreateConversationEndpoint(t *testing.T) {
	r, _ := newConversationRouter(&stubAI{})

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/conversations", gin.H{"title": "VPN 连不上"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, http.StatusCreated, env.Code)

	var conv model.Conversation
	require.NoError(t, json.Unmarshal(env.Data, &conv))
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "VPN 连不上", conv.Title)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, model.SenderAssistant, conv.Messages[0].Sender)
}

func TestCreateConversationDefaultTitle(t *testing.T) {
	r, _ := newConversationRouter(&stubAI{})

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/conversations", gin.H{})
	require.Equal(t, http.StatusCreated, w.Code)

	var conv model.Conversation
	require.NoError(t, json.Unmarshal(env.Data, &conv))
	assert.Equal(t, repository.DefaultTitle, conv.Title)
}

func TestListConversationsEndpoint(t *testing.T) {
	r, repo := newConversationRouter(&stubAI{})
	repo.Create("first")
	repo.Create("second")

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/conversations", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var convs []model.Conversation
	require.NoError(t, json.Unmarshal(env.Data, &convs))
	require.Len(t, convs, 2)
	assert.Equal(t, "first", convs[0].Title)
	assert.Equal(t, "second", convs[1].Title)
}

func TestGetConversationEndpoint(t *testing.T) {
	r, repo := newConversationRouter(&stubAI{})
	conv := repo.Create("get me")

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/conversations/"+conv.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got model.Conversation
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, conv.ID, got.ID)
}

func TestGetConversationNotFound(t *testing.T) {
	r, _ := newConversationRouter(&stubAI{})

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/conversations/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "会话不存在", env.Message)
}

func TestAddMessageEndpoint(t *testing.T) {
	r, repo := newConversationRouter(&stubAI{reply: "Have you checked the cable?"})
	conv := repo.Create("")

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/conversations/"+conv.ID+"/messages", gin.H{
		"content": "printer won't print",
		"sender":  "user",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var got model.Conversation
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "Have you checked the cable?", got.Messages[2].Content)
}

func TestAddMessageInvalidSender(t *testing.T) {
	r, repo := newConversationRouter(&stubAI{})
	conv := repo.Create("")

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/conversations/"+conv.ID+"/messages", gin.H{
		"content": "hi",
		"sender":  "robot",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddMessageEmptyPayload(t *testing.T) {
	r, repo := newConversationRouter(&stubAI{})
	conv := repo.Create("")

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/conversations/"+conv.ID+"/messages", gin.H{
		"sender": "user",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddMessageWhitespaceContentMapsToBadRequest(t *testing.T) {
	// 纯空白内容能通过 handler 的非空校验，但会在 AI 网关被判为空输入，
	// 该错误必须映射为 400 而不是通用 500
	r, repo := newConversationRouter(&stubAI{err: service.ErrEmptyInput})
	conv := repo.Create("")

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/conversations/"+conv.ID+"/messages", gin.H{
		"content": "   ",
		"sender":  "user",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, http.StatusBadRequest, env.Code)
}

func TestAddMessageNotFound(t *testing.T) {
	r, _ := newConversationRouter(&stubAI{})

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/conversations/missing/messages", gin.H{
		"content": "hi",
		"sender":  "user",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddMessageUpstreamFailure(t *testing.T) {
	r, repo := newConversationRouter(&stubAI{err: fmt.Errorf("%w: quota", service.ErrUpstream)})
	conv := repo.Create("")

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/conversations/"+conv.ID+"/messages", gin.H{
		"content": "hi",
		"sender":  "user",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "AI 服务暂时不可用", env.Message)

	// 失败时用户消息仍然保留
	got, err := repo.Get(conv.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 2)
}

func TestDeleteConversationEndpoint(t *testing.T) {
	r, repo := newConversationRouter(&stubAI{})
	conv := repo.Create("")

	w, _ := doJSON(t, r, http.MethodDelete, "/api/v1/conversations/"+conv.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/conversations/"+conv.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClearConversationEndpoint(t *testing.T) {
	r, repo := newConversationRouter(&stubAI{reply: "ok"})
	conv := repo.Create("")
	_, err := repo.AppendMessage(conv.ID, "question", model.SenderUser, nil)
	require.NoError(t, err)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/conversations/"+conv.ID+"/clear", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got, err := repo.Get(conv.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, repository.DefaultWelcomeMessage, got.Messages[0].Content)
}
