package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cachelab/promptcache/utils"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	logger := &utils.MockLogger{}
	logger.On("Debug", mock.Anything, mock.Anything).Return()

	builder, err := NewBuilder(logger)
	require.NoError(t, err)
	return builder
}

func markedIndices(turns []Turn) []int {
	var marked []int
	for i, turn := range turns {
		if turn.CacheMarked {
			marked = append(marked, i)
		}
	}
	return marked
}

func TestRenderEmptyLog(t *testing.T) {
	builder := newTestBuilder(t)

	rendered := builder.Render()
	assert.Empty(t, rendered)
}

func TestRenderNoUserTurns(t *testing.T) {
	builder := newTestBuilder(t)
	builder.AddAssistant("A0")

	rendered := builder.Render()
	require.Len(t, rendered, 1)
	assert.Empty(t, markedIndices(rendered))
	assert.Equal(t, RoleAssistant, rendered[0].Role)
	assert.Equal(t, "A0", rendered[0].Text)
}

func TestRenderMarksLatestUserTurn(t *testing.T) {
	builder := newTestBuilder(t)
	builder.AddUser("Q1")
	builder.AddAssistant("A1")
	builder.AddUser("Q2")

	rendered := builder.Render()
	require.Len(t, rendered, 3)
	assert.Equal(t, []int{2}, markedIndices(rendered))
	assert.Equal(t, "Q2", rendered[2].Text)
}

func TestRenderSingleUserTurn(t *testing.T) {
	builder := newTestBuilder(t)
	builder.AddUser("Q1")

	rendered := builder.Render()
	require.Len(t, rendered, 1)
	assert.Equal(t, []int{0}, markedIndices(rendered))
	assert.Equal(t, "Q1", rendered[0].Text)
}

func TestRenderOnlyUserTurns(t *testing.T) {
	builder := newTestBuilder(t)
	builder.AddUser("Q1")
	builder.AddUser("Q2")
	builder.AddUser("Q3")

	rendered := builder.Render()
	require.Len(t, rendered, 3)
	assert.Equal(t, []int{2}, markedIndices(rendered))
}

func TestRenderTrailingAssistantTurn(t *testing.T) {
	builder := newTestBuilder(t)
	builder.AddUser("Q1")
	builder.AddAssistant("A1")
	builder.AddUser("Q2")
	builder.AddAssistant("A2")

	// Q2 is still the latest user turn; the trailing assistant turn must
	// not pick up the mark.
	rendered := builder.Render()
	require.Len(t, rendered, 4)
	assert.Equal(t, []int{2}, markedIndices(rendered))
	assert.Equal(t, "Q2", rendered[2].Text)
}

func TestRenderPreservesOrder(t *testing.T) {
	builder := newTestBuilder(t)
	texts := []string{"Q1", "A1", "Q2", "A2", "Q3"}
	roles := []Role{RoleUser, RoleAssistant, RoleUser, RoleAssistant, RoleUser}
	for i, text := range texts {
		if roles[i] == RoleUser {
			builder.AddUser(text)
		} else {
			builder.AddAssistant(text)
		}
	}

	rendered := builder.Render()
	require.Len(t, rendered, len(texts))
	for i, turn := range rendered {
		assert.Equal(t, texts[i], turn.Text)
		assert.Equal(t, roles[i], turn.Role)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	builder := newTestBuilder(t)
	builder.AddUser("Q1")
	builder.AddAssistant("A1")
	builder.AddUser("Q2")

	first := builder.Render()
	second := builder.Render()
	assert.Equal(t, first, second)
}

func TestRenderDoesNotMutateLog(t *testing.T) {
	builder := newTestBuilder(t)
	builder.AddUser("Q1")

	rendered := builder.Render()
	rendered[0].Text = "tampered"
	rendered[0].CacheMarked = false

	again := builder.Render()
	assert.Equal(t, "Q1", again[0].Text)
	assert.True(t, again[0].CacheMarked)
}

func TestBreakpointSlidesForward(t *testing.T) {
	builder := newTestBuilder(t)
	builder.AddUser("Q1")
	assert.Equal(t, []int{0}, markedIndices(builder.Render()))

	builder.AddAssistant("A1")
	assert.Equal(t, []int{0}, markedIndices(builder.Render()))

	builder.AddUser("Q2")
	assert.Equal(t, []int{2}, markedIndices(builder.Render()))

	builder.AddAssistant("A2")
	builder.AddUser("Q3")
	assert.Equal(t, []int{4}, markedIndices(builder.Render()))
}

func TestTokenAccounting(t *testing.T) {
	builder := newTestBuilder(t)
	assert.Equal(t, 0, builder.TotalTokens())

	builder.AddUser("What are the key differences between open and closed ecosystems?")
	builder.AddAssistant("Open ecosystems favor flexibility; closed ones favor integration.")

	assert.Equal(t, 2, builder.Len())
	assert.Positive(t, builder.TotalTokens())

	rendered := builder.Render()
	sum := 0
	for _, turn := range rendered {
		assert.Positive(t, turn.Tokens)
		sum += turn.Tokens
	}
	assert.Equal(t, builder.TotalTokens(), sum)
}

func TestBuilderID(t *testing.T) {
	a := newTestBuilder(t)
	b := newTestBuilder(t)

	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}
