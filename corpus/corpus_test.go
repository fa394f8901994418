package corpus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cachelab/promptcache/utils"
)

func newTestLogger() *utils.MockLogger {
	logger := &utils.MockLogger{}
	logger.On("Debug", mock.Anything, mock.Anything).Return()
	logger.On("Info", mock.Anything, mock.Anything).Return()
	return logger
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("It is a truth universally acknowledged..."))
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, newTestLogger())
	text, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, text, "universally acknowledged")
}

func TestFetchNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, newTestLogger())
	_, err := fetcher.Fetch(context.Background(), server.URL)
	assert.ErrorContains(t, err, "status code 404")
}

func TestFetchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte("local corpus text"), 0o600))

	fetcher := NewFetcher(5*time.Second, newTestLogger())
	text, err := fetcher.FetchFile(path)
	require.NoError(t, err)
	assert.Equal(t, "local corpus text", text)

	_, err = fetcher.FetchFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	t.Run("within budget", func(t *testing.T) {
		text, count, err := Truncate("short text", 100)
		require.NoError(t, err)
		assert.Equal(t, "short text", text)
		assert.Positive(t, count)
		assert.LessOrEqual(t, count, 100)
	})

	t.Run("over budget", func(t *testing.T) {
		long := strings.Repeat("one two three four five ", 200)
		text, count, err := Truncate(long, 50)
		require.NoError(t, err)
		assert.Equal(t, 50, count)
		assert.Less(t, len(text), len(long))
	})

	t.Run("truncation is stable", func(t *testing.T) {
		long := strings.Repeat("the quick brown fox ", 100)
		first, _, err := Truncate(long, 30)
		require.NoError(t, err)
		second, _, err := Truncate(long, 30)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
