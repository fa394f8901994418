package providers

import (
	"encoding/json"

	"github.com/cachelab/promptcache/config"
	"github.com/cachelab/promptcache/utils"
)

// MockProvider is a configurable in-memory Provider for tests. It records
// the last prepared request and parses responses as plain Response JSON.
type MockProvider struct {
	apiKey       string
	model        string
	endpoint     string
	extraHeaders map[string]string
	options      map[string]any
	logger       utils.Logger

	LastRequest *Request
}

func NewMockProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	return &MockProvider{
		apiKey:       apiKey,
		model:        model,
		endpoint:     "http://localhost/mock",
		extraHeaders: extraHeaders,
		options:      make(map[string]any),
		logger:       utils.NewLogger(utils.LogLevelOff),
	}
}

func (p *MockProvider) Name() string     { return "mock" }
func (p *MockProvider) Endpoint() string { return p.endpoint }

// SetEndpoint points the mock at a test server.
func (p *MockProvider) SetEndpoint(endpoint string) { p.endpoint = endpoint }

func (p *MockProvider) Headers() map[string]string {
	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range p.extraHeaders {
		headers[k] = v
	}
	return headers
}

func (p *MockProvider) SetExtraHeaders(headers map[string]string) { p.extraHeaders = headers }
func (p *MockProvider) SetOption(key string, value any)           { p.options[key] = value }
func (p *MockProvider) SetLogger(logger utils.Logger)             { p.logger = logger }

func (p *MockProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("max_tokens", cfg.MaxTokens)
}

func (p *MockProvider) PrepareRequest(req *Request, options map[string]any) ([]byte, error) {
	p.LastRequest = req
	return json.Marshal(req)
}

func (p *MockProvider) ParseResponse(body []byte) (*Response, error) {
	var response Response
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, err
	}
	return &response, nil
}
