package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cachelab/promptcache"
	"github.com/cachelab/promptcache/corpus"
	"github.com/cachelab/promptcache/utils"
)

const rootLongDesc = `Demonstrates Anthropic prompt caching against a large
public-domain text.

The "single" subcommand sends the same question repeatedly over a large
cached system prompt and compares latency and token billing with and
without caching. The "chat" subcommand runs a multi-turn conversation in
which the cache breakpoint slides forward to the latest user turn on every
request.

Requires ANTHROPIC_API_KEY to be set.`

// rootOptions holds flags shared by both subcommands.
type rootOptions struct {
	model        string
	maxTokens    int
	corpusURL    string
	corpusFile   string
	corpusTokens int
	noCache      bool
	logLevel     string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "promptcache",
		Short:         "Prompt caching walkthrough for the Anthropic API",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.model, "model", "claude-3-5-sonnet-20240620", "Model to use")
	cmd.PersistentFlags().IntVar(&opts.maxTokens, "max-tokens", 1024, "Maximum output tokens per response")
	cmd.PersistentFlags().StringVar(&opts.corpusURL, "corpus-url", corpus.DefaultURL, "URL of the plain-text corpus")
	cmd.PersistentFlags().StringVar(&opts.corpusFile, "corpus-file", "", "Local corpus file (overrides --corpus-url)")
	cmd.PersistentFlags().IntVar(&opts.corpusTokens, "corpus-tokens", 4000, "Token budget for the corpus excerpt")
	cmd.PersistentFlags().BoolVar(&opts.noCache, "no-cache", false, "Disable cache annotations entirely")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "WARN", "Log level (OFF, ERROR, WARN, INFO, DEBUG)")

	cmd.AddCommand(NewSingleCmd(opts))
	cmd.AddCommand(NewChatCmd(opts))

	return cmd
}

func (o *rootOptions) parseLogLevel() (utils.LogLevel, error) {
	var level utils.LogLevel
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return 0, err
	}
	return level, nil
}

// newClient builds the library client from the shared flags.
func (o *rootOptions) newClient() (*promptcache.Client, error) {
	level, err := o.parseLogLevel()
	if err != nil {
		return nil, err
	}

	return promptcache.New(
		promptcache.SetModel(o.model),
		promptcache.SetMaxTokens(o.maxTokens),
		promptcache.SetEnableCaching(!o.noCache),
		promptcache.SetLogLevel(level),
	)
}

// loadCorpus fetches the corpus text and trims it to the token budget.
func (o *rootOptions) loadCorpus(ctx context.Context, logger utils.Logger) (string, int, error) {
	fetcher := corpus.NewFetcher(60*time.Second, logger)

	var text string
	var err error
	if o.corpusFile != "" {
		text, err = fetcher.FetchFile(o.corpusFile)
	} else {
		text, err = fetcher.Fetch(ctx, o.corpusURL)
	}
	if err != nil {
		return "", 0, err
	}

	return corpus.Truncate(text, o.corpusTokens)
}

// systemPrompt frames the corpus excerpt as stable, cacheable context.
func systemPrompt(corpusText string) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful literary assistant. Answer questions about the following text.\n\n")
	sb.WriteString("<text>\n")
	sb.WriteString(corpusText)
	sb.WriteString("\n</text>")
	return sb.String()
}

// printUsage renders one request's statistics.
func printUsage(label string, duration time.Duration, usage promptcache.Usage) {
	fmt.Printf("%-28s %8.2fs  input=%-6d cache_write=%-6d cache_read=%-6d output=%-5d cached=%.0f%%\n",
		label, duration.Seconds(),
		usage.InputTokens, usage.CacheCreationInputTokens,
		usage.CacheReadInputTokens, usage.OutputTokens,
		usage.CachedFraction()*100)
}
