package providers

import (
	"encoding/json"
	"fmt"

	"github.com/cachelab/promptcache/config"
	"github.com/cachelab/promptcache/utils"
)

const anthropicCachingBeta = "prompt-caching-2024-07-31"

// AnthropicProvider implements the Provider interface for the Anthropic
// messages API, with prompt-caching annotations on request content.
type AnthropicProvider struct {
	apiKey       string
	model        string
	endpoint     string
	extraHeaders map[string]string
	options      map[string]any
	logger       utils.Logger
}

func NewAnthropicProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	provider := &AnthropicProvider{
		apiKey:       apiKey,
		model:        model,
		endpoint:     "https://api.anthropic.com/v1/messages",
		extraHeaders: make(map[string]string),
		options:      make(map[string]any),
		logger:       utils.NewLogger(utils.LogLevelInfo),
	}

	for k, v := range extraHeaders {
		provider.extraHeaders[k] = v
	}

	// Prompt caching is the point of this provider, so the beta header is
	// always sent unless the caller overrides it.
	if _, exists := provider.extraHeaders["anthropic-beta"]; !exists {
		provider.extraHeaders["anthropic-beta"] = anthropicCachingBeta
	}

	return provider
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

func (p *AnthropicProvider) Endpoint() string {
	return p.endpoint
}

// SetEndpoint overrides the API endpoint. Used by tests to point the
// provider at a local server.
func (p *AnthropicProvider) SetEndpoint(endpoint string) {
	p.endpoint = endpoint
}

func (p *AnthropicProvider) SetLogger(logger utils.Logger) {
	p.logger = logger
}

func (p *AnthropicProvider) SetOption(key string, value any) {
	p.options[key] = value
}

func (p *AnthropicProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("temperature", cfg.Temperature)
	p.SetOption("max_tokens", cfg.MaxTokens)
}

func (p *AnthropicProvider) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type":      "application/json",
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	}
	for k, v := range p.extraHeaders {
		headers[k] = v
	}
	return headers
}

func (p *AnthropicProvider) SetExtraHeaders(headers map[string]string) {
	p.extraHeaders = headers
}

// PrepareRequest builds the messages-API request body. The system prompt
// becomes a content block, cache-annotated when the request says so, and
// each message carrying a CacheType gets a cache_control marker on its
// content block.
func (p *AnthropicProvider) PrepareRequest(req *Request, options map[string]any) ([]byte, error) {
	requestBody := map[string]any{
		"model":      p.model,
		"max_tokens": p.options["max_tokens"],
	}

	if req.SystemPrompt != "" {
		systemBlock := map[string]any{
			"type": "text",
			"text": req.SystemPrompt,
		}
		if req.SystemCache != "" {
			systemBlock["cache_control"] = map[string]string{"type": string(req.SystemCache)}
		}
		requestBody["system"] = []map[string]any{systemBlock}
	}

	messages := make([]map[string]any, 0, len(req.Messages))
	for _, msg := range req.Messages {
		content := map[string]any{
			"type": "text",
			"text": msg.Content,
		}
		if msg.CacheType != "" {
			content["cache_control"] = map[string]string{"type": string(msg.CacheType)}
		}
		messages = append(messages, map[string]any{
			"role":    msg.Role,
			"content": []map[string]any{content},
		})
	}
	requestBody["messages"] = messages

	for k, v := range p.options {
		if k != "max_tokens" {
			requestBody[k] = v
		}
	}
	for k, v := range options {
		requestBody[k] = v
	}

	return json.Marshal(requestBody)
}

// ParseResponse decodes a messages-API response, concatenating text blocks
// and carrying through the usage statistics, cache counters included.
func (p *AnthropicProvider) ParseResponse(body []byte) (*Response, error) {
	p.logger.Debug("Raw API response", "body", string(body))

	var response struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Role    string `json:"role"`
		Model   string `json:"model"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
		Usage      struct {
			InputTokens              int64 `json:"input_tokens"`
			CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
			CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
			OutputTokens             int64 `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	if len(response.Content) == 0 {
		return nil, fmt.Errorf("empty response from LLM")
	}

	var text string
	for _, content := range response.Content {
		if content.Type == "text" {
			text += content.Text
		}
	}

	return &Response{
		Content:    text,
		Model:      response.Model,
		StopReason: response.StopReason,
		Usage: Usage{
			InputTokens:              response.Usage.InputTokens,
			CacheCreationInputTokens: response.Usage.CacheCreationInputTokens,
			CacheReadInputTokens:     response.Usage.CacheReadInputTokens,
			OutputTokens:             response.Usage.OutputTokens,
		},
	}, nil
}
