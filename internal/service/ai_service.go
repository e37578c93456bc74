package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"it-helpdesk-go/pkg/gemini"
	"it-helpdesk-go/pkg/log"

	"github.com/gabriel-vasile/mimetype"
)

// AI 网关相关的哨兵错误，供 handler 层映射为对应的 HTTP 状态码。
var (
	// ErrEmptyInput 表示调用方没有提供可处理的输入。
	ErrEmptyInput = errors.New("input is empty")
	// ErrInvalidImage 表示提供的字节不是可识别的图片格式。
	ErrInvalidImage = errors.New("not a valid image")
	// ErrUnsupportedPart 表示多模态输入中出现了未知的分段类型。
	ErrUnsupportedPart = errors.New("unsupported input part type")
	// ErrUpstream 表示对生成式 AI 服务的外部调用失败。
	ErrUpstream = errors.New("ai upstream call failed")
)

// 多模态输入分段类型。
const (
	PartTypeText  = "text"
	PartTypeImage = "image"
	PartTypeAudio = "audio"
)

// MultiModalPart 表示多模态请求中的一个有序分段。
type MultiModalPart struct {
	Type string
	Text string
	Data []byte
}

// AIService 定义了对生成式 AI 能力的网关接口。
// 四个操作都不修改本地状态，只负责外部调用和结果/错误的转换。
type AIService interface {
	ProcessText(ctx context.Context, text string) (string, error)
	ProcessImage(ctx context.Context, data []byte, prompt string) (string, error)
	ProcessAudio(ctx context.Context, data []byte, prompt string) (string, error)
	ProcessMultiModal(ctx context.Context, parts []MultiModalPart) (string, error)
}

type aiService struct {
	client gemini.Client
}

// NewAIService 创建一个新的 AIService 实例。
func NewAIService(client gemini.Client) AIService {
	return &aiService{client: client}
}

// ProcessText 以纯文本调用文本模型。
func (s *aiService) ProcessText(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}
	result, err := s.client.GenerateText(ctx, text)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return result, nil
}

// ProcessImage 校验图片格式后调用视觉模型分析图片。
func (s *aiService) ProcessImage(ctx context.Context, data []byte, prompt string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyInput
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrInvalidImage, mime.String())
	}
	if prompt == "" {
		prompt = "Please analyze this image"
	}

	parts := []gemini.Part{
		{Text: prompt},
		{Data: data, MIMEType: mime.String()},
	}
	result, err := s.client.GenerateVision(ctx, parts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return result, nil
}

// ProcessAudio 是音频处理的显式占位实现：校验输入后只把提示词转给文本模型，
// 音频字节本身不会被转写。
// TODO: 接入语音转写服务（如 Cloud Speech-to-Text），把转写结果并入提示词。
func (s *aiService) ProcessAudio(ctx context.Context, data []byte, prompt string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyInput
	}
	if prompt == "" {
		prompt = "Please analyze this audio"
	}

	composed := prompt + "\n\nNote: the user attached an audio clip, but audio transcription is not available yet. Respond based on the prompt alone and mention this limitation."
	result, err := s.client.GenerateText(ctx, composed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return result, nil
}

// ProcessMultiModal 把有序的多模态分段转换为一次视觉模型调用。
// 文本分段原样传递，图片分段校验格式后携带二进制数据。
// 音频分段目前没有处理能力，跳过并记录警告（这是能力缺口，不是特性）。
func (s *aiService) ProcessMultiModal(ctx context.Context, parts []MultiModalPart) (string, error) {
	if len(parts) == 0 {
		return "", ErrEmptyInput
	}

	geminiParts := make([]gemini.Part, 0, len(parts))
	for i, p := range parts {
		switch p.Type {
		case PartTypeText:
			if strings.TrimSpace(p.Text) == "" {
				continue
			}
			geminiParts = append(geminiParts, gemini.Part{Text: p.Text})
		case PartTypeImage:
			mime := mimetype.Detect(p.Data)
			if len(p.Data) == 0 || !strings.HasPrefix(mime.String(), "image/") {
				return "", fmt.Errorf("%w: part %d", ErrInvalidImage, i)
			}
			geminiParts = append(geminiParts, gemini.Part{Data: p.Data, MIMEType: mime.String()})
		case PartTypeAudio:
			log.Warnf("多模态输入包含音频分段（第 %d 段），当前不支持音频处理，已跳过", i)
		default:
			return "", fmt.Errorf("%w: %q", ErrUnsupportedPart, p.Type)
		}
	}

	if len(geminiParts) == 0 {
		return "", ErrEmptyInput
	}

	result, err := s.client.GenerateVision(ctx, geminiParts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return result, nil
}
