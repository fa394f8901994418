package promptcache

import (
	"github.com/cachelab/promptcache/config"
	"github.com/cachelab/promptcache/conversation"
	"github.com/cachelab/promptcache/providers"
	"github.com/cachelab/promptcache/utils"
)

// Re-exported types forming the public API surface.
type (
	// Turn is one message in a conversation log.
	Turn = conversation.Turn

	// Role identifies a turn's speaker.
	Role = conversation.Role

	// Conversation accumulates turns and renders them with a cache
	// breakpoint on the latest user turn.
	Conversation = conversation.Builder

	// Message is the provider-level message shape.
	Message = providers.Message

	// Request is the provider-independent request shape.
	Request = providers.Request

	// Response is a decoded provider response.
	Response = providers.Response

	// Usage holds per-request token counts split by cache activity.
	Usage = providers.Usage

	// CacheType names a caching strategy for request content.
	CacheType = providers.CacheType

	// ConfigOption customizes client configuration.
	ConfigOption = config.ConfigOption

	// LogLevel controls library log verbosity.
	LogLevel = utils.LogLevel
)

const (
	RoleUser      = conversation.RoleUser
	RoleAssistant = conversation.RoleAssistant

	CacheTypeEphemeral = providers.CacheTypeEphemeral

	LogLevelOff   = utils.LogLevelOff
	LogLevelError = utils.LogLevelError
	LogLevelWarn  = utils.LogLevelWarn
	LogLevelInfo  = utils.LogLevelInfo
	LogLevelDebug = utils.LogLevelDebug
)

// Re-exported configuration options.
var (
	SetProvider          = config.SetProvider
	SetModel             = config.SetModel
	SetAPIKey            = config.SetAPIKey
	SetTemperature       = config.SetTemperature
	SetMaxTokens         = config.SetMaxTokens
	SetTimeout           = config.SetTimeout
	SetMaxRetries        = config.SetMaxRetries
	SetRetryDelay        = config.SetRetryDelay
	SetRequestsPerMinute = config.SetRequestsPerMinute
	SetLogLevel          = config.SetLogLevel
	SetEnableCaching     = config.SetEnableCaching
	SetExtraHeaders      = config.SetExtraHeaders
)
