// Package model 包含了应用的数据模型定义。
package model

// Sender 表示消息的发送方，仅有 user 和 assistant 两种取值。
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Valid 判断发送方取值是否合法。
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// AttachmentType 表示附件的类型。
type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentFile  AttachmentType = "file"
	AttachmentAudio AttachmentType = "audio"
)

// Attachment 表示消息携带的一个附件引用。
// 字节内容由上传方持有（对象存储或内联 data URL），这里只保存引用和元数据。
type Attachment struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      AttachmentType `json:"type"`
	URL       string         `json:"url"`
	ObjectKey string         `json:"objectKey,omitempty"` // 对象存储中的键，内联附件为空
	Size      int64          `json:"size,omitempty"`
}

// Message 表示会话中的一条消息。消息一旦追加到会话便不再修改。
type Message struct {
	ID          string       `json:"id"`
	Content     string       `json:"content"`
	Sender      Sender       `json:"sender"`
	Timestamp   LocalTime    `json:"timestamp"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Conversation 表示一次完整的支持会话，消息按追加顺序排列。
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt LocalTime `json:"createdAt"`
}
