// Package service 包含了应用的业务逻辑层。
package service

import (
	"it-helpdesk-go/internal/model"
	"it-helpdesk-go/internal/repository"
	"it-helpdesk-go/pkg/kafka"
	"it-helpdesk-go/pkg/log"
)

// ConversationService 定义了会话管理的业务接口。
type ConversationService interface {
	CreateConversation(title string) *model.Conversation
	ListConversations() []*model.Conversation
	GetConversation(id string) (*model.Conversation, error)
	DeleteConversation(id string) error
	ClearConversation(id string) error
}

type conversationService struct {
	repo repository.ConversationRepository
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(repo repository.ConversationRepository) ConversationService {
	return &conversationService{repo: repo}
}

// CreateConversation 创建一个新会话，标题为空时由存储层应用默认标题。
func (s *conversationService) CreateConversation(title string) *model.Conversation {
	conversation := s.repo.Create(title)
	publishEvent(kafka.ChatEvent{Type: kafka.EventConversationCreated, ConversationID: conversation.ID})
	return conversation
}

// ListConversations 按创建顺序返回所有会话。
func (s *conversationService) ListConversations() []*model.Conversation {
	return s.repo.List()
}

// GetConversation 按 ID 返回会话。
func (s *conversationService) GetConversation(id string) (*model.Conversation, error) {
	return s.repo.Get(id)
}

// DeleteConversation 删除整个会话。
func (s *conversationService) DeleteConversation(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	publishEvent(kafka.ChatEvent{Type: kafka.EventConversationDeleted, ConversationID: id})
	return nil
}

// ClearConversation 将会话消息重置为初始欢迎状态。
func (s *conversationService) ClearConversation(id string) error {
	if err := s.repo.Clear(id); err != nil {
		return err
	}
	publishEvent(kafka.ChatEvent{Type: kafka.EventConversationCleared, ConversationID: id})
	return nil
}

// publishEvent 尽力而为地发布会话事件，失败只记录日志，不影响主流程。
func publishEvent(ev kafka.ChatEvent) {
	if err := kafka.PublishChatEvent(ev); err != nil {
		log.Errorf("发布会话事件失败: type=%s, conversationId=%s, error: %v", ev.Type, ev.ConversationID, err)
	}
}
