package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cachelab/promptcache/config"
	"github.com/cachelab/promptcache/providers"
	"github.com/cachelab/promptcache/utils"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()

	registry := providers.NewProviderRegistry()
	registry.Register("mock", providers.NewMockProvider)

	cfg := config.NewConfig()
	config.SetProvider("mock")(cfg)
	config.SetMaxRetries(2)(cfg)
	config.SetRetryDelay(10 * time.Millisecond)(cfg)
	config.SetRequestsPerMinute(60000)(cfg)

	logger := &utils.MockLogger{}
	logger.On("Debug", mock.Anything, mock.Anything).Return()
	logger.On("Warn", mock.Anything, mock.Anything).Return()
	logger.On("Error", mock.Anything, mock.Anything).Return()

	client, err := NewClient(cfg, logger, registry)
	require.NoError(t, err)

	client.Provider.(*providers.MockProvider).SetEndpoint(serverURL)
	return client
}

func okResponse(content string) providers.Response {
	return providers.Response{
		Content: content,
		Usage: providers.Usage{
			InputTokens:          10,
			CacheReadInputTokens: 90,
			OutputTokens:         5,
		},
	}
}

func TestClientGenerate(t *testing.T) {
	var gotBody providers.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		require.NoError(t, json.NewEncoder(w).Encode(okResponse("hello")))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	req := &providers.Request{
		Messages: []providers.Message{
			{Role: "user", Content: "Q1", CacheType: providers.CacheTypeEphemeral},
		},
	}
	resp, err := client.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, int64(90), resp.Usage.CacheReadInputTokens)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, providers.CacheTypeEphemeral, gotBody.Messages[0].CacheType)
}

func TestClientRetriesTransientFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(okResponse("recovered")))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	resp, err := client.Generate(context.Background(), &providers.Request{
		Messages: []providers.Message{{Role: "user", Content: "Q1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Content)
	assert.Equal(t, 2, calls)
}

func TestClientExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Generate(context.Background(), &providers.Request{
		Messages: []providers.Message{{Role: "user", Content: "Q1"}},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to generate after 3 attempts")
}

func TestClientAuthenticationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Generate(context.Background(), &providers.Request{
		Messages: []providers.Message{{Role: "user", Content: "Q1"}},
	})
	require.Error(t, err)

	var llmErr *LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrorTypeAuthentication, llmErr.Type)
}

func TestClientContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.RetryDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.Generate(ctx, &providers.Request{
			Messages: []providers.Message{{Role: "user", Content: "Q1"}},
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Generate did not return after context cancellation")
	}
}

func TestClientUnknownProvider(t *testing.T) {
	cfg := config.NewConfig()
	config.SetProvider("nonexistent")(cfg)

	logger := &utils.MockLogger{}
	_, err := NewClient(cfg, logger, providers.NewProviderRegistry())
	require.Error(t, err)

	var llmErr *LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrorTypeProvider, llmErr.Type)
}

func TestLLMErrorFormatting(t *testing.T) {
	err := NewLLMError(ErrorTypeAPI, "status code 500", nil)
	assert.Equal(t, "APIError: status code 500", err.Error())

	wrapped := NewLLMError(ErrorTypeRequest, "failed to send request", context.DeadlineExceeded)
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
	assert.Contains(t, wrapped.Error(), "RequestError")
}
