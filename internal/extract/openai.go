package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"wealthwise/internal/errors"
	"wealthwise/internal/models"
	"wealthwise/pkg/utils"
)

const tradeSystemPrompt = `You read broker purchase memos from the Pakistan Stock Exchange.
Extract the trade details and respond with ONLY a JSON object, no prose, using exactly these keys:
{"memo_number": "", "date": "YYYY-MM-DD", "stock": "", "quantity": "", "rate": "", "commission": "", "cdc_charges": "", "sales_tax": ""}
All values are strings. Use "" for anything the memo does not state. Do not invent values.`

const dividendSystemPrompt = `You read dividend warrants issued by Pakistani companies.
Extract the payment details and respond with ONLY a JSON object, no prose, using exactly these keys:
{"warrant_no": "", "payment_date": "YYYY-MM-DD", "stock": "", "rate_per_security": "", "number_of_securities": "", "tax_deducted": ""}
All values are strings. Use "" for anything the warrant does not state. Do not invent values.`

// completer is the slice of the OpenAI client the extractor uses.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIExtractor implements Extractor using an OpenAI chat model.
type OpenAIExtractor struct {
	client      completer
	model       string
	temperature float32
	retry       utils.RetryConfig
}

// NewOpenAIExtractor creates an extractor backed by the OpenAI API.
func NewOpenAIExtractor(apiKey, model string, temperature float32) *OpenAIExtractor {
	return &OpenAIExtractor{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		retry:       utils.DefaultRetryConfig(),
	}
}

// ExtractTrade parses a purchase memo into a draft trade.
func (e *OpenAIExtractor) ExtractTrade(ctx context.Context, text string) (*models.DraftTrade, error) {
	raw, err := e.complete(ctx, tradeSystemPrompt, text)
	if err != nil {
		return nil, errors.NewExtractionError("trade", err)
	}

	var draft models.DraftTrade
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, errors.NewExtractionError("trade", fmt.Errorf("model returned invalid JSON: %w", err))
	}
	draft.ID = uuid.NewString()
	return &draft, nil
}

// ExtractDividend parses a dividend warrant into a draft dividend.
func (e *OpenAIExtractor) ExtractDividend(ctx context.Context, text string) (*models.DraftDividend, error) {
	raw, err := e.complete(ctx, dividendSystemPrompt, text)
	if err != nil {
		return nil, errors.NewExtractionError("dividend", err)
	}

	var draft models.DraftDividend
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, errors.NewExtractionError("dividend", fmt.Errorf("model returned invalid JSON: %w", err))
	}
	draft.ID = uuid.NewString()
	return &draft, nil
}

func (e *OpenAIExtractor) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var resp openai.ChatCompletionResponse
	err := utils.Retry(ctx, e.retry, func() error {
		var err error
		resp, err = e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       e.model,
			Temperature: e.temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return stripFences(resp.Choices[0].Message.Content), nil
}

// stripFences removes a markdown code fence if the model wrapped its
// JSON in one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
