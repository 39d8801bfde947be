package extract

import (
	"context"
	"testing"

	"github.com/sashabaranov/go-openai"

	"wealthwise/internal/errors"
	"wealthwise/pkg/utils"
)

type fakeCompleter struct {
	response string
	err      error
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.response}},
		},
	}, nil
}

func testExtractor(c completer) *OpenAIExtractor {
	return &OpenAIExtractor{client: c, retry: utils.RetryConfig{MaxAttempts: 1}}
}

func TestExtractTrade_ParsesFencedJSON(t *testing.T) {
	e := testExtractor(&fakeCompleter{response: "```json\n" +
		`{"memo_number":"M-123","date":"2024-01-10","stock":"OGDC","quantity":"100","rate":"120.50","commission":"30","cdc_charges":"5","sales_tax":"4.50"}` +
		"\n```"})

	draft, err := e.ExtractTrade(context.Background(), "memo text")
	if err != nil {
		t.Fatalf("ExtractTrade failed: %v", err)
	}

	if draft.MemoNumber != "M-123" {
		t.Errorf("memo = %q, want M-123", draft.MemoNumber)
	}
	if draft.Instrument != "OGDC" {
		t.Errorf("instrument = %q, want OGDC", draft.Instrument)
	}
	if draft.Rate != "120.50" {
		t.Errorf("rate = %q, want 120.50", draft.Rate)
	}
	if draft.ID == "" {
		t.Error("draft has no id")
	}
}

func TestExtractTrade_InvalidJSONProducesNoDraft(t *testing.T) {
	e := testExtractor(&fakeCompleter{response: "the memo shows a purchase of 100 shares"})

	draft, err := e.ExtractTrade(context.Background(), "memo text")
	if draft != nil {
		t.Fatal("expected no draft on invalid response")
	}
	var xerr *errors.ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

func TestExtractDividend_ParsesPlainJSON(t *testing.T) {
	e := testExtractor(&fakeCompleter{response: `{"warrant_no":"W-55","payment_date":"2024-03-01","stock":"FFC","rate_per_security":"4.25","number_of_securities":"200","tax_deducted":"127.50"}`})

	draft, err := e.ExtractDividend(context.Background(), "warrant text")
	if err != nil {
		t.Fatalf("ExtractDividend failed: %v", err)
	}
	if draft.WarrantNo != "W-55" || draft.Shares != "200" {
		t.Errorf("unexpected draft: %+v", draft)
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  {\"a\":1}  ", "{\"a\":1}"},
	}
	for _, tc := range cases {
		if got := stripFences(tc.in); got != tc.want {
			t.Errorf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
