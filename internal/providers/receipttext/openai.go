package receipttext

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/smallbiznis/parkpro/internal/parking/domain"
)

const (
	defaultModel     = "gpt-4o-mini"
	maxSummaryTokens = 80
	maxSummaryRunes  = 280
)

const systemPrompt = "You are an assistant for a parking app. Generate a concise, friendly, one-line summary for a payment receipt. Reply with the sentence only."

var errEmptyCompletion = errors.New("empty completion")

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

func NewOpenAI(cfg Config, opts ...option.RequestOption) *OpenAIProvider {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Checkout owns the deadline.
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	reqOpts = append(reqOpts, opts...)

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	return &OpenAIProvider{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}
}

func (p *OpenAIProvider) Summarize(ctx context.Context, in domain.ReceiptTextInput) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(in)),
		},
		MaxTokens:   openai.Int(maxSummaryTokens),
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		return "", fmt.Errorf("receipt text completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}

	text := firstLine(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errEmptyCompletion
	}
	return text, nil
}

func userPrompt(in domain.ReceiptTextInput) string {
	return fmt.Sprintf(
		"The customer just paid Rs %s for parking their car (%s) for %s, from %s to %s. "+
			"Generate a short, friendly message confirming the transaction. "+
			"Example: \"Your payment of Rs %s for %s was successful.\"",
		in.Charge.StringFixed(2),
		in.CarNumber,
		in.DurationLabel,
		in.EntryTime.Format("2006-01-02 15:04"),
		in.ExitTime.Format("2006-01-02 15:04"),
		in.Charge.StringFixed(2),
		in.DurationLabel,
	)
}

// firstLine trims the completion to a single printable line.
func firstLine(content string) string {
	content = strings.TrimSpace(content)
	if idx := strings.IndexAny(content, "\r\n"); idx >= 0 {
		content = content[:idx]
	}
	content = strings.Trim(strings.TrimSpace(content), "\"")
	if runes := []rune(content); len(runes) > maxSummaryRunes {
		content = string(runes[:maxSummaryRunes])
	}
	return content
}

var _ domain.ReceiptTextProvider = (*OpenAIProvider)(nil)
