package provider

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/course-intel/internal/model"
	"github.com/sells-group/course-intel/pkg/anthropic"
)

// LLMRequest is a single-shot prompt. No tools are offered to the model.
type LLMRequest struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int64
	Purpose   string
}

// LLMResult is the text of a completion.
type LLMResult struct {
	Meta
	Text string
}

// LLM adapts the Anthropic client.
type LLM struct {
	client anthropic.Client
	opts   Options
}

// NewLLM creates an LLM adapter. A nil client leaves it unconfigured.
func NewLLM(client anthropic.Client, opts Options) *LLM {
	return &LLM{client: client, opts: opts.withDefaults()}
}

// Configured reports whether the adapter has a client.
func (l *LLM) Configured() bool { return l != nil && l.client != nil }

// Complete runs req and returns the concatenated text.
func (l *LLM) Complete(ctx context.Context, req LLMRequest) LLMResult {
	var res LLMResult
	if !l.Configured() {
		res.Error = notConfigured("anthropic")
		return res
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = 1024
	}
	temp := 0.0

	var resp *anthropic.MessageResponse
	err := l.opts.call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = l.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       req.Model,
			MaxTokens:   req.MaxTokens,
			System:      req.System,
			Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
			Temperature: &temp,
		})
		return err
	})
	if err != nil {
		res.Error = fail("anthropic", req.Purpose, err)
		return res
	}

	usd := l.opts.Calc.Claude(req.Model, int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens))
	resp.Usage.LogCost(req.Model, req.Purpose, usd)
	res.charge(model.Usage{Provider: "anthropic", CostUSD: usd, Calls: 1})
	res.Text = extractText(resp)
	return res
}

// CompleteJSON runs req and decodes the JSON object in the reply into out.
func (l *LLM) CompleteJSON(ctx context.Context, req LLMRequest, out any) LLMResult {
	res := l.Complete(ctx, req)
	if res.Failed() {
		return res
	}
	if err := decodeJSON(res.Text, out); err != nil {
		res.Error = fail("anthropic", req.Purpose, err)
	}
	return res
}

// extractText concatenates all text content blocks from a message response.
func extractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

func decodeJSON(text string, out any) error {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return eris.New("empty reply")
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return eris.Wrap(err, "parse json reply")
	}
	return nil
}

// ClipText keeps the first n characters of s without splitting a
// multi-byte rune.
func ClipText(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
