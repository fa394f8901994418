package providers

// CacheType defines how a piece of request content should be cached by the
// completion service.
type CacheType string

const (
	// CacheTypeEphemeral marks content as a short-lived cache boundary:
	// everything up to and including the marked block may be served from
	// the provider's prompt cache on subsequent requests.
	CacheTypeEphemeral CacheType = "ephemeral"
)

// Request is the provider-independent request shape. The system prompt and
// each message carry an optional cache annotation.
type Request struct {
	SystemPrompt string    `json:"system_prompt,omitempty"`
	SystemCache  CacheType `json:"system_cache,omitempty"`
	Messages     []Message `json:"messages"`
}

// Message is a single conversation message. CacheType is empty for
// unannotated messages; at most one message per request should carry an
// annotation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CacheType CacheType `json:"cache_type,omitempty"`
}

// Response is the decoded provider response.
type Response struct {
	Content    string `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      Usage  `json:"usage"`
}

// Usage holds token counts for one request, split by cache activity.
// CacheCreationInputTokens were written to the prompt cache (billed at a
// premium); CacheReadInputTokens were served from it (billed at a steep
// discount); InputTokens is the uncached remainder.
type Usage struct {
	InputTokens              int64 `json:"input_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
}

// TotalInputTokens returns all input tokens regardless of cache activity.
func (u Usage) TotalInputTokens() int64 {
	return u.InputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens
}

// CachedFraction returns the share of input tokens served from cache,
// in [0, 1].
func (u Usage) CachedFraction() float64 {
	total := u.TotalInputTokens()
	if total == 0 {
		return 0
	}
	return float64(u.CacheReadInputTokens) / float64(total)
}
