// Package conversation maintains an append-only log of chat turns and
// renders it with a cache breakpoint on the most recent user turn. The
// rendered view is what gets handed to a completion provider: as the
// conversation grows, the breakpoint slides forward so each request tells
// the API "everything up through here is stable and reusable."
package conversation

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkoukk/tiktoken-go"

	"github.com/cachelab/promptcache/utils"
)

// Role identifies the speaker of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultEncoding is the tiktoken encoding used for token accounting.
// Claude models have no public tokenizer, so cl100k_base is used as a
// close approximation for reporting purposes.
const DefaultEncoding = "cl100k_base"

// Turn is a single message in a conversation. CacheMarked is false on
// stored turns; Render sets it on exactly one turn in its output.
type Turn struct {
	Role        Role
	Text        string
	CacheMarked bool
	Tokens      int
}

// Builder accumulates conversation turns and produces cache-annotated
// renderings of the log. The log is append-only: turns are never removed
// or rewritten, and Render never mutates it.
type Builder struct {
	id          string
	mutex       sync.Mutex
	turns       []Turn
	lastUser    int // index of the most recent user turn, -1 if none
	totalTokens int
	encoding    *tiktoken.Tiktoken
	logger      utils.Logger
}

// NewBuilder creates an empty Builder. Token counts are approximate, for
// display only; an encoding failure is surfaced rather than silently
// producing zero counts.
func NewBuilder(logger utils.Logger) (*Builder, error) {
	encoding, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, err
	}

	return &Builder{
		id:       uuid.NewString(),
		turns:    []Turn{},
		lastUser: -1,
		encoding: encoding,
		logger:   logger,
	}, nil
}

// ID returns the session identifier assigned at construction.
func (b *Builder) ID() string {
	return b.id
}

// AddUser appends a user turn to the log.
func (b *Builder) AddUser(text string) {
	b.add(RoleUser, text)
}

// AddAssistant appends an assistant turn to the log.
func (b *Builder) AddAssistant(text string) {
	b.add(RoleAssistant, text)
}

func (b *Builder) add(role Role, text string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	tokens := len(b.encoding.Encode(text, nil, nil))
	b.turns = append(b.turns, Turn{Role: role, Text: text, Tokens: tokens})
	if role == RoleUser {
		b.lastUser = len(b.turns) - 1
	}
	b.totalTokens += tokens

	b.logger.Debug("Added turn to conversation",
		"session", b.id, "role", string(role), "tokens", tokens, "total_tokens", b.totalTokens)
}

// Render returns the log in chronological order with exactly the most
// recent user turn cache-marked. If the log holds no user turn, nothing is
// marked. The log itself is untouched, so repeated calls without an
// intervening append yield identical output.
func (b *Builder) Render() []Turn {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	rendered := make([]Turn, len(b.turns))
	copy(rendered, b.turns)
	if b.lastUser >= 0 {
		rendered[b.lastUser].CacheMarked = true
	}
	return rendered
}

// Len returns the number of turns in the log.
func (b *Builder) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return len(b.turns)
}

// TotalTokens returns the approximate token count of the whole log.
func (b *Builder) TotalTokens() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return b.totalTokens
}
