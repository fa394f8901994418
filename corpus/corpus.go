// Package corpus fetches large public-domain texts to use as cacheable
// system-prompt context, and truncates them to a token budget. Sources are
// plain text (Project Gutenberg exports or local files); no markup
// processing is attempted.
package corpus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/cachelab/promptcache/utils"
)

// DefaultURL points at the Project Gutenberg plain-text edition of
// Pride and Prejudice, a conveniently large stable document.
const DefaultURL = "https://www.gutenberg.org/cache/epub/1342/pg1342.txt"

// Encoding used for truncation budgets. Approximate for Claude models.
const encodingName = "cl100k_base"

// Fetcher retrieves corpus text over HTTP or from disk.
type Fetcher struct {
	client *http.Client
	logger utils.Logger
}

// NewFetcher creates a Fetcher with the given request timeout.
func NewFetcher(timeout time.Duration, logger utils.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Fetch downloads the text at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.logger.Debug("Fetching corpus", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch corpus: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch corpus: status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read corpus body: %w", err)
	}

	f.logger.Info("Fetched corpus", "url", url, "bytes", len(body))
	return string(body), nil
}

// FetchFile reads corpus text from a local file.
func (f *Fetcher) FetchFile(path string) (string, error) {
	f.logger.Debug("Reading corpus file", "path", path)

	body, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read corpus file: %w", err)
	}
	return string(body), nil
}

// Truncate cuts text down to at most maxTokens tokens, returning the
// truncated text and its token count. Text already within budget is
// returned unchanged.
func Truncate(text string, maxTokens int) (string, int, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return "", 0, fmt.Errorf("failed to get encoding: %w", err)
	}

	tokens := encoding.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, len(tokens), nil
	}

	truncated := encoding.Decode(tokens[:maxTokens])
	return truncated, maxTokens, nil
}
