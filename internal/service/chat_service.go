package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"it-helpdesk-go/internal/model"
	"it-helpdesk-go/internal/repository"
	"it-helpdesk-go/pkg/kafka"
	"it-helpdesk-go/pkg/storage"
)

// ErrAttachmentUnreadable 表示附件既没有内联数据也没有可用的对象存储引用，
// 或者内联数据无法解码。属于调用方输入问题。
var ErrAttachmentUnreadable = errors.New("attachment data unavailable")

// imageAnalysisPrompt 是对消息附带图片做视觉分析时使用的提示词。
const imageAnalysisPrompt = "Please analyze this image and provide relevant context for the conversation."

// ChatService 定义了消息编排的接口：追加用户消息、生成 AI 回复并写回会话。
type ChatService interface {
	// SendMessage 向会话追加一条消息。当 sender 为 user 时，同步生成并追加助手回复。
	// 无论 AI 调用是否成功，用户消息都会先被保存。返回追加后的完整会话。
	SendMessage(ctx context.Context, conversationID, content string, sender model.Sender, attachments []model.Attachment) (*model.Conversation, error)
}

type chatService struct {
	repo  repository.ConversationRepository
	ai    AIService
	store storage.ObjectStore
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(repo repository.ConversationRepository, ai AIService, store storage.ObjectStore) ChatService {
	return &chatService{repo: repo, ai: ai, store: store}
}

// SendMessage 实现了单条用户消息的完整编排流程。
func (s *chatService) SendMessage(ctx context.Context, conversationID, content string, sender model.Sender, attachments []model.Attachment) (*model.Conversation, error) {
	// 1. 先追加本条消息。即使后续 AI 处理失败，用户说过的话也已经保存下来。
	message, err := s.repo.AppendMessage(conversationID, content, sender, attachments)
	if err != nil {
		return nil, err
	}
	publishEvent(kafka.ChatEvent{
		Type:           kafka.EventMessageAppended,
		ConversationID: conversationID,
		MessageID:      message.ID,
		Sender:         string(sender),
	})

	// 非用户消息（例如直接插入助手消息）不触发 AI 回复。
	if sender != model.SenderUser {
		return s.repo.Get(conversationID)
	}

	// 2. 组装提示词：附件分析并行展开，全部完成后再拼接。
	prompt, err := s.buildPrompt(ctx, content, attachments)
	if err != nil {
		return nil, err
	}

	// 3. 调用文本模型生成回复。
	reply, err := s.ai.ProcessText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	// 4. 将助手回复追加回会话。
	assistantMessage, err := s.repo.AppendMessage(conversationID, reply, model.SenderAssistant, nil)
	if err != nil {
		return nil, err
	}
	publishEvent(kafka.ChatEvent{
		Type:           kafka.EventMessageAppended,
		ConversationID: conversationID,
		MessageID:      assistantMessage.ID,
		Sender:         string(model.SenderAssistant),
	})

	return s.repo.Get(conversationID)
}

// buildPrompt 把消息正文和所有附件的标注拼成一条完整提示词。
// 每个附件的标注独立生成（图片需要一次视觉模型调用），并行执行、全部完成后合并，
// 标注在结果中保持附件的原始顺序。
func (s *chatService) buildPrompt(ctx context.Context, content string, attachments []model.Attachment) (string, error) {
	if len(attachments) == 0 {
		return content, nil
	}

	annotations := make([]string, len(attachments))
	errs := make([]error, len(attachments))

	var wg sync.WaitGroup
	for i, att := range attachments {
		wg.Add(1)
		go func(i int, att model.Attachment) {
			defer wg.Done()
			annotations[i], errs[i] = s.annotateAttachment(ctx, att)
		}(i, att)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return "", err
		}
	}

	return content + "\n\nAttachments:\n" + strings.Join(annotations, "\n"), nil
}

// annotateAttachment 为单个附件生成提示词标注。
// 图片附件会经过视觉模型分析，其余类型只标注类型和文件名。
func (s *chatService) annotateAttachment(ctx context.Context, att model.Attachment) (string, error) {
	if att.Type != model.AttachmentImage {
		return fmt.Sprintf("[%s attachment: %s]", att.Type, att.Name), nil
	}

	data, err := s.resolveAttachmentData(ctx, att)
	if err != nil {
		return "", err
	}
	analysis, err := s.ai.ProcessImage(ctx, data, imageAnalysisPrompt)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("[Image Analysis: %s]", analysis), nil
}

// resolveAttachmentData 取回附件的原始字节。
// 支持两种引用形式：内联 data URL（base64 解码），或对象存储键（从存储取回）。
func (s *chatService) resolveAttachmentData(ctx context.Context, att model.Attachment) ([]byte, error) {
	if strings.HasPrefix(att.URL, "data:") {
		_, encoded, found := strings.Cut(att.URL, ",")
		if !found {
			return nil, fmt.Errorf("%w: malformed data url for %s", ErrAttachmentUnreadable, att.Name)
		}
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAttachmentUnreadable, err)
		}
		return data, nil
	}

	if att.ObjectKey != "" && s.store != nil {
		data, _, err := s.store.Get(ctx, att.ObjectKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAttachmentUnreadable, err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrAttachmentUnreadable, att.Name)
}
