package llm

import (
	"context"
	"strings"
)

type LLMClient interface {
	// Complete runs a single non-streaming completion and returns the full text.
	Complete(
		ctx context.Context,
		messages []Message,
		opts ...LLMOption,
	) (string, error)

	// StreamComplete runs a streaming completion. Every content delta is passed
	// to callback in arrival order; the assembled answer is returned when the
	// server closes the stream. An empty assembled answer with a nil error means
	// the call succeeded but the model produced no content.
	StreamComplete(
		ctx context.Context,
		messages []Message,
		callback func(chunk string) error,
		opts ...LLMOption,
	) (string, error)

	GetModel() string
}

type LLMSettings struct {
	model       string  // model name
	temperature float64 // randomness (0.0 to 1.0)
	maxTokens   int     // maximum tokens to generate
	system      string  // system prompt
}

type LLMOption func(*LLMSettings)

// Common options for all providers
func WithModel(model string) LLMOption {
	return func(s *LLMSettings) { s.model = model }
}

func WithTemperature(temp float64) LLMOption {
	return func(s *LLMSettings) { s.temperature = temp }
}

func WithMaxTokens(tokens int) LLMOption {
	return func(s *LLMSettings) { s.maxTokens = tokens }
}

func WithSystemPrompt(prompt string) LLMOption {
	return func(s *LLMSettings) { s.system = prompt }
}

// Message is one chat turn. Content is either a plain string or, for turns
// carrying file payloads, an ordered []ContentPart.
type Message struct {
	Role    string `json:"role"`    // "user", "assistant", "system"
	Content any    `json:"content"` // string or []ContentPart
}

// ContentPart is one element of a structured message body.
type ContentPart struct {
	Type string    `json:"type"` // "text" or "file"
	Text string    `json:"text,omitempty"`
	File *FilePart `json:"file,omitempty"`
}

// FilePart references a document either inline (base64 data URL) or by the id
// returned from the files endpoint.
type FilePart struct {
	Filename string `json:"filename,omitempty"`
	FileData string `json:"file_data,omitempty"`
	FileID   string `json:"file_id,omitempty"`
}

func TextMessage(role, content string) Message {
	return Message{Role: role, Content: content}
}

func PartsMessage(role string, parts ...ContentPart) Message {
	return Message{Role: role, Content: parts}
}

func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

func FileDataPart(filename, dataURL string) ContentPart {
	return ContentPart{Type: "file", File: &FilePart{Filename: filename, FileData: dataURL}}
}

func FileIDPart(fileID string) ContentPart {
	return ContentPart{Type: "file", File: &FilePart{FileID: fileID}}
}

// TextContent returns the textual portion of a message: the string content as
// is, or the concatenated text parts of a structured body.
func (m Message) TextContent() string {
	switch c := m.Content.(type) {
	case string:
		return c
	case []ContentPart:
		var sb strings.Builder
		for _, p := range c {
			if p.Type == "text" {
				sb.WriteString(p.Text)
			}
		}
		return sb.String()
	default:
		return ""
	}
}
