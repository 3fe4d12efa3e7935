package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Schema 结构化输出的 JSON Schema 描述
type Schema struct {
	Name       string
	Definition json.RawMessage
}

// Client LLM 提供方客户端接口。CompleteStructured 返回符合 schema 的
// JSON 文本；CompleteText 返回自由文本。两者失败时返回 *ProviderError。
type Client interface {
	CompleteStructured(ctx context.Context, prompt string, schema Schema) (string, error)
	CompleteText(ctx context.Context, prompt string) (string, error)
}

// Config OpenAI 兼容客户端配置
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// OpenAIClient OpenAI 兼容的 chat completions 客户端
type OpenAIClient struct {
	cfg    Config
	client *http.Client
	logger *logrus.Logger
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *jsonSchemaSpec `json:"json_schema,omitempty"`
}

type jsonSchemaSpec struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func NewOpenAIClient(cfg Config, logger *logrus.Logger) *OpenAIClient {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OpenAIClient{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// CompleteStructured 请求受 schema 约束的结构化输出，返回消息正文（JSON 文本）
func (c *OpenAIClient) CompleteStructured(ctx context.Context, prompt string, schema Schema) (string, error) {
	req := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaSpec{
				Name:   schema.Name,
				Strict: true,
				Schema: schema.Definition,
			},
		},
	}
	return c.doChat(ctx, req)
}

// CompleteText 请求自由文本补全
func (c *OpenAIClient) CompleteText(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	return c.doChat(ctx, req)
}

func (c *OpenAIClient) doChat(ctx context.Context, request chatRequest) (string, error) {
	tracer := otel.Tracer("triagent/llm")
	ctx, span := tracer.Start(ctx, "OpenAIClient.doChat")
	span.SetAttributes(attribute.String("model", c.cfg.Model))
	defer span.End()

	if c.cfg.APIKey == "" {
		return "", newProviderError(KindAuth, "api key not configured", nil)
	}

	// 每次调用都带超时，悬挂的请求按提供方失败处理
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	reqBody, err := json.Marshal(request)
	if err != nil {
		return "", newProviderError(KindTransport, "marshal request", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.cfg.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", newProviderError(KindTransport, "create request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.APIKey))

	resp, err := c.client.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", newProviderError(KindTransport, "send request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newProviderError(KindTransport, "read response", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		span.SetStatus(codes.Error, "authentication failed")
		return "", newProviderError(KindAuth, fmt.Sprintf("provider returned %d", resp.StatusCode), nil)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", newProviderError(KindMalformed, "unmarshal response", err)
	}

	if chatResp.Error != nil {
		span.SetStatus(codes.Error, chatResp.Error.Message)
		// 老模型/兼容端点不支持 json_schema 时返回 invalid_request_error
		if request.ResponseFormat != nil && chatResp.Error.Type == "invalid_request_error" &&
			strings.Contains(chatResp.Error.Message, "response_format") {
			return "", newProviderError(KindUnsupported, chatResp.Error.Message, nil)
		}
		return "", newProviderError(KindTransport, fmt.Sprintf("provider API error: %s", chatResp.Error.Message), nil)
	}

	if len(chatResp.Choices) == 0 {
		span.SetStatus(codes.Error, "no response choices")
		return "", newProviderError(KindMalformed, "no response choices", nil)
	}

	msg := chatResp.Choices[0].Message
	if msg.Refusal != "" {
		span.SetStatus(codes.Error, "refusal")
		return "", newProviderError(KindRefusal, msg.Refusal, nil)
	}
	if strings.TrimSpace(msg.Content) == "" {
		span.SetStatus(codes.Error, "empty content")
		return "", newProviderError(KindMalformed, "empty response content", nil)
	}

	return msg.Content, nil
}
