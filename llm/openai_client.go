package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

// OpenAIClient talks to any OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewOpenAIClient(baseURL, apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
	}
}

// WithHTTPClient swaps the underlying HTTP client, e.g. to apply timeouts.
func (c *OpenAIClient) WithHTTPClient(hc *http.Client) *OpenAIClient {
	c.httpClient = hc
	return c
}

func (c *OpenAIClient) GetModel() string {
	return c.model
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []Message, opts ...LLMOption) (string, error) {
	settings := c.defaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	resp, err := c.post(ctx, buildRequest(settings, messages, false))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return response.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) StreamComplete(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) (string, error) {
	settings := c.defaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	resp, err := c.post(ctx, buildRequest(settings, messages, true))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var answer strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		delta, ok := parseStreamLine(scanner.Text())
		if !ok || delta == "" {
			continue
		}
		answer.WriteString(delta)
		if callback != nil {
			if err := callback(delta); err != nil {
				return answer.String(), err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return answer.String(), fmt.Errorf("error reading stream: %w", err)
	}

	return answer.String(), nil
}

// parseStreamLine normalizes one SSE line and extracts the content delta.
// Both "data:" and "data: " framings occur in the wild and are treated the
// same. Malformed JSON lines are logged and skipped, never fatal: servers
// interleave partial chunks at flush boundaries.
func parseStreamLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if line == "" || line == "[DONE]" {
		return "", false
	}

	var chunk streamChunk
	if err := json.Unmarshal([]byte(line), &chunk); err != nil {
		logger.Info("could not parse stream line", zap.String("line", line))
		return "", false
	}
	if len(chunk.Choices) == 0 {
		return "", false
	}
	return chunk.Choices[0].Delta.Content, true
}

func (c *OpenAIClient) post(ctx context.Context, request chatRequest) (*http.Response, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &HTTPStatusError{Status: resp.StatusCode, Body: string(body)}
	}

	return resp, nil
}

func (c *OpenAIClient) defaultSettings() LLMSettings {
	return LLMSettings{
		model:       c.model,
		temperature: 0.7,
	}
}

func buildRequest(settings LLMSettings, messages []Message, stream bool) chatRequest {
	request := chatRequest{
		Model:       settings.model,
		Messages:    messages,
		Temperature: settings.temperature,
		MaxTokens:   settings.maxTokens,
		Stream:      stream,
	}
	if settings.system != "" {
		request.Messages = append([]Message{TextMessage("system", settings.system)}, request.Messages...)
	}
	return request
}

// HTTPStatusError is a non-2xx response from the completions endpoint. It is
// surfaced to the caller without retry.
type HTTPStatusError struct {
	Status int
	Body   string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.Status, e.Body)
}

// OpenAI-compatible API types
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type streamChunk struct {
	Choices []streamChoice `json:"choices"`
}

type streamChoice struct {
	Index int         `json:"index"`
	Delta streamDelta `json:"delta"`
}

type streamDelta struct {
	Content string `json:"content"`
}
