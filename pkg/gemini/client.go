// Package gemini 提供了与 Google Gemini 生成式 AI 服务交互的客户端。
package gemini

import (
	"context"
	"errors"
	"fmt"

	"it-helpdesk-go/internal/config"

	"google.golang.org/genai"
)

// Part 表示一段发往视觉模型的输入：纯文本或带 MIME 类型的二进制数据。
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

// Client 定义了生成式 AI 客户端的接口。
type Client interface {
	// GenerateText 以纯文本 prompt 调用文本模型，返回生成的文本。
	GenerateText(ctx context.Context, prompt string) (string, error)
	// GenerateVision 以有序的多段输入（文本/图片）调用视觉模型，返回生成的文本。
	GenerateVision(ctx context.Context, parts []Part) (string, error)
}

type geminiClient struct {
	cfg    config.GeminiConfig
	client *genai.Client
}

// NewClient 创建一个新的 Gemini 客户端实例。
func NewClient(ctx context.Context, cfg config.GeminiConfig) (Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 Gemini 客户端失败: %w", err)
	}
	return &geminiClient{cfg: cfg, client: client}, nil
}

// safetySettings 返回统一的内容安全策略：四类有害内容均在中等及以上时拦截。
func safetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return settings
}

// GenerateText 调用文本模型生成回复。
func (c *geminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.TextModel, genai.Text(prompt), &genai.GenerateContentConfig{
		SafetySettings: safetySettings(),
	})
	if err != nil {
		return "", fmt.Errorf("调用 Gemini 文本接口失败: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("Gemini 文本接口返回了空响应")
	}
	return text, nil
}

// GenerateVision 调用视觉模型处理多段输入。
func (c *geminiClient) GenerateVision(ctx context.Context, parts []Part) (string, error) {
	genaiParts := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if len(p.Data) > 0 {
			genaiParts = append(genaiParts, genai.NewPartFromBytes(p.Data, p.MIMEType))
		} else {
			genaiParts = append(genaiParts, genai.NewPartFromText(p.Text))
		}
	}

	contents := []*genai.Content{genai.NewContentFromParts(genaiParts, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.VisionModel, contents, &genai.GenerateContentConfig{
		SafetySettings: safetySettings(),
	})
	if err != nil {
		return "", fmt.Errorf("调用 Gemini 视觉接口失败: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("Gemini 视觉接口返回了空响应")
	}
	return text, nil
}
