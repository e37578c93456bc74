// Package repository 提供了数据访问层的实现。
package repository

import (
	"errors"
	"sync"

	"it-helpdesk-go/internal/model"

	"github.com/google/uuid"
)

// ErrConversationNotFound 表示目标会话在存储中不存在。
var ErrConversationNotFound = errors.New("conversation not found")

const (
	// DefaultTitle 是创建会话时未提供标题的默认值。
	DefaultTitle = "New Conversation"
	// DefaultWelcomeMessage 是新建或清空会话时播种的助手欢迎语。
	DefaultWelcomeMessage = "Hello! I'm your IT Support Agent. What technical issue can I help you with?"
)

// ConversationRepository 定义了会话存储的操作接口。
// 存储是进程内的权威数据源，进程重启后内容丢失。
type ConversationRepository interface {
	// Create 创建一个新会话：分配 UUID、应用默认标题策略并播种一条助手欢迎消息。
	Create(title string) *model.Conversation
	// List 返回全部会话，按创建（插入）顺序排列。
	List() []*model.Conversation
	// Get 按 ID 返回会话。
	Get(id string) (*model.Conversation, error)
	// AppendMessage 向目标会话追加一条新消息并返回它。消息追加后不可变。
	AppendMessage(id, content string, sender model.Sender, attachments []model.Attachment) (*model.Message, error)
	// Delete 删除整个会话。
	Delete(id string) error
	// Clear 将会话的消息重置为单条欢迎消息，保留 ID、标题和创建时间。
	Clear(id string) error
}

// memoryConversationRepository 是基于内存 map 的实现。
// 所有读写都在同一把读写锁下进行，保证并发请求不会丢失追加或破坏消息顺序。
type memoryConversationRepository struct {
	mu             sync.RWMutex
	conversations  map[string]*model.Conversation
	order          []string // 会话 ID 的插入顺序
	defaultTitle   string
	welcomeMessage string
}

// NewConversationRepository 创建一个新的会话存储实例。
// defaultTitle 和 welcomeMessage 为空时使用包内默认值。
func NewConversationRepository(defaultTitle, welcomeMessage string) ConversationRepository {
	if defaultTitle == "" {
		defaultTitle = DefaultTitle
	}
	if welcomeMessage == "" {
		welcomeMessage = DefaultWelcomeMessage
	}
	return &memoryConversationRepository{
		conversations:  make(map[string]*model.Conversation),
		defaultTitle:   defaultTitle,
		welcomeMessage: welcomeMessage,
	}
}

// seedMessages 构造一条全新的欢迎消息，作为会话的初始消息序列。
func (r *memoryConversationRepository) seedMessages() []model.Message {
	return []model.Message{
		{
			ID:        uuid.NewString(),
			Content:   r.welcomeMessage,
			Sender:    model.SenderAssistant,
			Timestamp: model.Now(),
		},
	}
}

// Create 创建并登记一个新会话。
func (r *memoryConversationRepository) Create(title string) *model.Conversation {
	if title == "" {
		title = r.defaultTitle
	}
	conversation := &model.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		Messages:  r.seedMessages(),
		CreatedAt: model.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.conversations[conversation.ID] = conversation
	r.order = append(r.order, conversation.ID)

	// 快照必须在锁内构造：会话一旦登记，并发的 AppendMessage 就可能改写它
	return copyConversation(conversation)
}

// List 按插入顺序返回所有会话。
func (r *memoryConversationRepository) List() []*model.Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Conversation, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, copyConversation(r.conversations[id]))
	}
	return result
}

// Get 按 ID 返回会话。
func (r *memoryConversationRepository) Get(id string) (*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conversation, ok := r.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return copyConversation(conversation), nil
}

// AppendMessage 构造一条带新 ID 和当前时间戳的消息，追加到目标会话。
func (r *memoryConversationRepository) AppendMessage(id, content string, sender model.Sender, attachments []model.Attachment) (*model.Message, error) {
	message := model.Message{
		ID:          uuid.NewString(),
		Content:     content,
		Sender:      sender,
		Timestamp:   model.Now(),
		Attachments: attachments,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	conversation, ok := r.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	conversation.Messages = append(conversation.Messages, message)

	return &message, nil
}

// Delete 删除整个会话。
func (r *memoryConversationRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[id]; !ok {
		return ErrConversationNotFound
	}
	delete(r.conversations, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear 将会话的消息重置为新的欢迎消息序列。
func (r *memoryConversationRepository) Clear(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conversation, ok := r.conversations[id]
	if !ok {
		return ErrConversationNotFound
	}
	conversation.Messages = r.seedMessages()
	return nil
}

// copyConversation 返回会话的快照（消息切片和每条消息的附件切片都单独复制）。
// 调用方拿到的是独立副本，避免在锁外读到被并发追加修改的切片，
// 也避免通过快照改写存储中的消息。
func copyConversation(c *model.Conversation) *model.Conversation {
	messages := make([]model.Message, len(c.Messages))
	copy(messages, c.Messages)
	for i := range messages {
		if len(messages[i].Attachments) > 0 {
			attachments := make([]model.Attachment, len(messages[i].Attachments))
			copy(attachments, messages[i].Attachments)
			messages[i].Attachments = attachments
		}
	}
	return &model.Conversation{
		ID:        c.ID,
		Title:     c.Title,
		Messages:  messages,
		CreatedAt: c.CreatedAt,
	}
}
