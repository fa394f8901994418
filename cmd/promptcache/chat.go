package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const chatLongDesc = `Run a scripted multi-turn conversation over a cached
corpus.

Every request resends the full conversation log, with the cache boundary
placed on the most recent user turn. As the conversation grows the boundary
slides forward, so each request reuses the cached prefix (system prompt plus
all earlier turns) and only pays full price for the newest exchange.`

var defaultQuestions = []string{
	"Who are the principal characters introduced at the start of this text?",
	"How would you describe the narrator's tone? Give two examples.",
	"What social conventions drive the plot in the early chapters?",
	"Summarize the conversation we have had so far in two sentences.",
}

type chatCommander struct {
	root      *rootOptions
	questions []string
}

func NewChatCmd(root *rootOptions) *cobra.Command {
	cmder := &chatCommander{root: root}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Multi-turn conversation with a sliding cache breakpoint",
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringArrayVar(&cmder.questions, "question", nil,
		"Question to ask (repeatable; defaults to a scripted set)")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	client, err := c.root.newClient()
	if err != nil {
		return err
	}

	corpusText, corpusTokens, err := c.root.loadCorpus(ctx, client.Logger())
	if err != nil {
		return err
	}
	fmt.Printf("Corpus excerpt: ~%d tokens\n\n", corpusTokens)

	system := systemPrompt(corpusText)

	builder, err := client.NewConversation()
	if err != nil {
		return err
	}

	questions := c.questions
	if len(questions) == 0 {
		questions = defaultQuestions
	}

	var totalRead, totalInput int64
	for i, question := range questions {
		fmt.Printf("Turn %d: %s\n", i+1, question)

		start := time.Now()
		resp, err := client.Ask(ctx, builder, system, question, i == 0)
		if err != nil {
			return err
		}
		duration := time.Since(start)

		printUsage(fmt.Sprintf("turn %d", i+1), duration, resp.Usage)
		fmt.Printf("  %s\n\n", strings.TrimSpace(firstLine(resp.Content)))

		totalRead += resp.Usage.CacheReadInputTokens
		totalInput += resp.Usage.TotalInputTokens()
	}

	fmt.Printf("Conversation: %d turns, ~%d tokens in the log\n", builder.Len(), builder.TotalTokens())
	if totalInput > 0 {
		fmt.Printf("Cache served %d of %d input tokens (%.0f%%)\n",
			totalRead, totalInput, float64(totalRead)/float64(totalInput)*100)
	}

	return nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
