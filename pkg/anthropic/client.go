// Package anthropic is the narrow slice of the Anthropic Messages API the
// engine uses: single-turn text completions with an optional cached system
// prompt.
package anthropic

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client sends Messages requests. Tests substitute a mock.
type Client interface {
	CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)
}

// MessageRequest is a Messages API call.
type MessageRequest struct {
	Model       string
	MaxTokens   int64
	System      []SystemBlock
	Messages    []Message
	Temperature *float64
}

// SystemBlock is one system prompt block. A non-nil CacheControl marks the
// prompt prefix up to and including this block as cacheable.
type SystemBlock struct {
	Text         string
	CacheControl *CacheControl
}

// CacheControl selects the cache lifetime: "5m" (the API default) or "1h".
type CacheControl struct {
	TTL string
}

// Message is one conversational turn. Any role other than "assistant" is
// sent as "user".
type Message struct {
	Role    string
	Content string
}

// MessageResponse is the part of a Messages reply the engine reads.
type MessageResponse struct {
	ID         string
	Model      string
	Content    []ContentBlock
	StopReason string
	Usage      TokenUsage
}

// ContentBlock is one reply block. Only text blocks carry Text.
type ContentBlock struct {
	Type string
	Text string
}

// Text joins the reply's text blocks.
func (r *MessageResponse) Text() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range r.Content {
		if c.Type == "text" || c.Type == "" {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

// TokenUsage counts the tokens billed for a reply.
type TokenUsage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

// price is USD per million tokens.
type price struct {
	input, output float64
}

// Cache writes bill at 1.25x input, cache reads at 0.1x input.
const (
	cacheWriteMultiplier = 1.25
	cacheReadMultiplier  = 0.1
)

var prices = map[string]price{
	"claude-haiku-4-5-20251001":  {input: 0.80, output: 4.00},
	"claude-sonnet-4-5-20250929": {input: 3.00, output: 15.00},
}

// EstimateCost returns the USD cost of u under model's pricing, or 0 for an
// unpriced model.
func (u TokenUsage) EstimateCost(model string) float64 {
	p, ok := prices[model]
	if !ok {
		return 0
	}
	perM := func(n int64, rate float64) float64 { return float64(n) / 1e6 * rate }
	return perM(u.InputTokens, p.input) +
		perM(u.OutputTokens, p.output) +
		perM(u.CacheCreationInputTokens, p.input*cacheWriteMultiplier) +
		perM(u.CacheReadInputTokens, p.input*cacheReadMultiplier)
}

// LogCost logs u at debug level, tagged with the call's purpose.
func (u TokenUsage) LogCost(model, purpose string) {
	zap.L().Debug("anthropic: usage",
		zap.String("model", model),
		zap.String("purpose", purpose),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Int64("cache_write_tokens", u.CacheCreationInputTokens),
		zap.Int64("cache_read_tokens", u.CacheReadInputTokens),
		zap.Float64("estimated_cost_usd", u.EstimateCost(model)),
	)
}

type sdkClient struct {
	client sdk.Client
}

// NewClient returns a Client backed by anthropic-sdk-go. opts pass through
// to the SDK after the API key, so tests can point it at a local server.
func NewClient(apiKey string, opts ...option.RequestOption) Client {
	return &sdkClient{
		client: sdk.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
	}
}

func (c *sdkClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	msg, err := c.client.Messages.New(ctx, req.params())
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create message")
	}
	return newResponse(msg), nil
}

// params converts r to SDK request parameters.
func (r MessageRequest) params() sdk.MessageNewParams {
	p := sdk.MessageNewParams{
		Model:     sdk.Model(r.Model),
		MaxTokens: r.MaxTokens,
		Messages:  make([]sdk.MessageParam, 0, len(r.Messages)),
	}
	for _, m := range r.Messages {
		block := sdk.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			p.Messages = append(p.Messages, sdk.NewAssistantMessage(block))
		} else {
			p.Messages = append(p.Messages, sdk.NewUserMessage(block))
		}
	}
	for _, s := range r.System {
		tb := sdk.TextBlockParam{Text: s.Text}
		if s.CacheControl != nil {
			tb.CacheControl = sdk.NewCacheControlEphemeralParam()
			if s.CacheControl.TTL != "" {
				tb.CacheControl.TTL = sdk.CacheControlEphemeralTTL(s.CacheControl.TTL)
			}
		}
		p.System = append(p.System, tb)
	}
	if r.Temperature != nil {
		p.Temperature = sdk.Float(*r.Temperature)
	}
	return p
}

func newResponse(msg *sdk.Message) *MessageResponse {
	resp := &MessageResponse{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Content:    make([]ContentBlock, 0, len(msg.Content)),
		StopReason: string(msg.StopReason),
		Usage: TokenUsage{
			InputTokens:              msg.Usage.InputTokens,
			OutputTokens:             msg.Usage.OutputTokens,
			CacheCreationInputTokens: msg.Usage.CacheCreationInputTokens,
			CacheReadInputTokens:     msg.Usage.CacheReadInputTokens,
		},
	}
	for _, b := range msg.Content {
		resp.Content = append(resp.Content, ContentBlock{Type: b.Type, Text: b.Text})
	}
	return resp
}
