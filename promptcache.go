// Package promptcache demonstrates prompt caching against the Anthropic
// messages API: a conversation log with a sliding cache breakpoint, a
// caching-aware provider layer, and an HTTP client that reports cache usage
// statistics per request.
package promptcache

import (
	"context"
	"fmt"

	"github.com/cachelab/promptcache/config"
	"github.com/cachelab/promptcache/conversation"
	"github.com/cachelab/promptcache/llm"
	"github.com/cachelab/promptcache/providers"
	"github.com/cachelab/promptcache/utils"
)

// Client is the top-level entry point. It owns the configured provider
// client and hands out conversation builders tied to the same logger.
type Client struct {
	llm    *llm.Client
	config *config.Config
	logger utils.Logger
}

// New builds a Client from the environment plus any option overrides.
func New(opts ...config.ConfigOption) (*Client, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := utils.NewLogger(cfg.LogLevel)
	logger.Debug("Creating client", "provider", cfg.Provider, "model", cfg.Model, "caching", cfg.EnableCaching)

	client, err := llm.NewClient(cfg, logger, providers.NewProviderRegistry())
	if err != nil {
		return nil, err
	}

	return &Client{
		llm:    client,
		config: cfg,
		logger: logger,
	}, nil
}

// Config returns the client's resolved configuration.
func (c *Client) Config() *config.Config {
	return c.config
}

// Logger returns the client's logger.
func (c *Client) Logger() utils.Logger {
	return c.logger
}

// NewConversation creates an empty conversation builder sharing the
// client's logger.
func (c *Client) NewConversation() (*conversation.Builder, error) {
	return conversation.NewBuilder(c.logger)
}

// Generate submits a prepared request. Most callers want Ask instead.
func (c *Client) Generate(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	return c.llm.Generate(ctx, req)
}

// Ask runs one conversational exchange: the question is appended to the
// builder, the whole log is rendered with its cache breakpoint on that
// question, the request is submitted, and the reply is appended before
// returning. markSystem annotates the system prompt as a cache boundary;
// the demos set it only on a session's first request.
func (c *Client) Ask(ctx context.Context, builder *conversation.Builder, systemPrompt, question string, markSystem bool) (*providers.Response, error) {
	builder.AddUser(question)

	req := &providers.Request{
		SystemPrompt: systemPrompt,
		Messages:     MessagesFromTurns(builder.Render(), c.config.EnableCaching),
	}
	if markSystem && c.config.EnableCaching {
		req.SystemCache = providers.CacheTypeEphemeral
	}

	resp, err := c.llm.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	builder.AddAssistant(resp.Content)
	return resp, nil
}

// MessagesFromTurns converts rendered turns into provider messages. When
// caching is disabled the cache marks are dropped so the request carries no
// annotations at all.
func MessagesFromTurns(turns []conversation.Turn, caching bool) []providers.Message {
	messages := make([]providers.Message, len(turns))
	for i, turn := range turns {
		messages[i] = providers.Message{
			Role:    string(turn.Role),
			Content: turn.Text,
		}
		if turn.CacheMarked && caching {
			messages[i].CacheType = providers.CacheTypeEphemeral
		}
	}
	return messages
}
