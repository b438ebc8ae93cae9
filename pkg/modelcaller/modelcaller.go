// Package modelcaller 封装OpenAI兼容的chat-completion调用，带有界指数退避重试。
package modelcaller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message 对话消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat 输出格式约束
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatRequest chat-completion请求体
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatResponse chat-completion响应体
type ChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// ModelCallError 重试耗尽后的模型调用错误
type ModelCallError struct {
	Label string
	Err   error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("模型调用失败[%s]: %v", e.Label, e.Err)
}

func (e *ModelCallError) Unwrap() error {
	return e.Err
}

// Options 客户端配置
type Options struct {
	BaseURL        string
	APIKey         string
	Model          string
	SystemPrompt   string
	Temperature    float64
	MaxTokens      int
	Timeout        time.Duration // 单次请求超时，每次尝试都有完整的超时时间
	RetryCount     int           // 重试次数，总尝试次数为RetryCount+1
	RetryBaseDelay time.Duration // 第k次重试前等待 RetryBaseDelay * 2^(k-1)
}

// Client 模型调用客户端
type Client struct {
	client       *http.Client
	baseURL      string
	apiKey       string
	model        string
	systemPrompt string
	temperature  float64
	maxTokens    int
	retryCount   int
	baseDelay    time.Duration
}

// NewClient 创建模型调用客户端
func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.RetryBaseDelay == 0 {
		opts.RetryBaseDelay = time.Second
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 4096
	}

	return &Client{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		baseURL:      opts.BaseURL,
		apiKey:       opts.APIKey,
		model:        opts.Model,
		systemPrompt: opts.SystemPrompt,
		temperature:  opts.Temperature,
		maxTokens:    opts.MaxTokens,
		retryCount:   opts.RetryCount,
		baseDelay:    opts.RetryBaseDelay,
	}
}

// Complete 发送提示词并返回模型首个choice的文本内容。
// 失败时按指数退避重试，重试耗尽后包装最后一次的底层错误返回。
func (c *Client) Complete(ctx context.Context, prompt string, label string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay * (1 << (attempt - 1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", &ModelCallError{Label: label, Err: ctx.Err()}
			}
		}

		content, err := c.call(ctx, prompt)
		if err == nil {
			return content, nil
		}
		lastErr = err
	}

	return "", &ModelCallError{Label: label, Err: lastErr}
}

// call 执行单次chat-completion请求
func (c *Client) call(ctx context.Context, prompt string) (string, error) {
	messages := make([]Message, 0, 2)
	if c.systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: c.systemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})

	reqBody := ChatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("序列化请求失败: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API返回错误: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var result ChatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("解析响应失败: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", nil
	}

	return result.Choices[0].Message.Content, nil
}
