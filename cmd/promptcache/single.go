package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cachelab/promptcache"
)

const singleLongDesc = `Send one question over a large cached system prompt.

The question is sent once without any cache annotation to establish a
baseline, then repeatedly with the system prompt and question marked as
cache boundaries. The first annotated request writes the cache (billed at a
premium); later ones read from it (billed at a steep discount) and usually
return faster.`

type singleCommander struct {
	root     *rootOptions
	question string
	repeat   int
}

func NewSingleCmd(root *rootOptions) *cobra.Command {
	cmder := &singleCommander{root: root}

	cmd := &cobra.Command{
		Use:   "single",
		Short: "Compare cached and uncached requests over the same context",
		Long:  singleLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.question, "question",
		"Summarize the opening chapter of this text in three sentences.",
		"Question to ask about the corpus")
	cmd.Flags().IntVar(&cmder.repeat, "repeat", 2, "Number of cache-annotated requests to send")

	return cmd
}

func (c *singleCommander) run(ctx context.Context) error {
	client, err := c.root.newClient()
	if err != nil {
		return err
	}

	corpusText, corpusTokens, err := c.root.loadCorpus(ctx, client.Logger())
	if err != nil {
		return err
	}
	fmt.Printf("Corpus excerpt: ~%d tokens\n", corpusTokens)
	fmt.Printf("Question: %s\n\n", c.question)

	system := systemPrompt(corpusText)

	// Baseline: same request shape, no cache annotations anywhere.
	baseline, err := promptcache.New(
		promptcache.SetModel(c.root.model),
		promptcache.SetMaxTokens(c.root.maxTokens),
		promptcache.SetEnableCaching(false),
	)
	if err != nil {
		return err
	}

	resp, duration, err := timedRequest(ctx, baseline, system, c.question, false)
	if err != nil {
		return err
	}
	printUsage("uncached baseline", duration, resp.Usage)

	if c.root.noCache {
		return nil
	}

	for i := 0; i < c.repeat; i++ {
		resp, duration, err := timedRequest(ctx, client, system, c.question, true)
		if err != nil {
			return err
		}

		label := fmt.Sprintf("cached request %d", i+1)
		if resp.Usage.CacheCreationInputTokens > 0 {
			label += " (cache write)"
		} else if resp.Usage.CacheReadInputTokens > 0 {
			label += " (cache read)"
		}
		printUsage(label, duration, resp.Usage)

		if i == c.repeat-1 {
			fmt.Printf("\nResponse:\n%s\n", strings.TrimSpace(resp.Content))
		}
	}

	return nil
}

// timedRequest sends a single-turn request and measures wall-clock latency.
func timedRequest(ctx context.Context, client *promptcache.Client, system, question string, mark bool) (*promptcache.Response, time.Duration, error) {
	req := &promptcache.Request{
		SystemPrompt: system,
		Messages:     []promptcache.Message{{Role: "user", Content: question}},
	}
	if mark {
		req.SystemCache = promptcache.CacheTypeEphemeral
		req.Messages[0].CacheType = promptcache.CacheTypeEphemeral
	}

	start := time.Now()
	resp, err := client.Generate(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}
