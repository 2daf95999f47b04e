package carton

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/dimfreight/internal/model"
	"github.com/sells-group/dimfreight/internal/resilience"
	"github.com/sells-group/dimfreight/pkg/anthropic"
)

const classifyPrompt = `You classify furniture and home goods by how the vendor ships them.

Answer with a single JSON object and nothing else:
{"tier": "flatpack" | "assembled" | "neutral", "confidence": 0.0-1.0, "reason": "<short reason>"}

flatpack: ships disassembled in a compact carton.
assembled: ships fully built or crated.
neutral: mixed or unclear.`

const productPrompt = `Title: %s
Vendor: %s
Category: %s
Description: %s`

// AIClassifier asks Claude for the vendor tier. Hard assembled categories
// are answered locally; any API or parse failure falls back to the
// heuristic classifier.
type AIClassifier struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	breaker   *resilience.CircuitBreaker
	limiter   *rate.Limiter
	fallback  Classifier
}

// Default request rate against the Messages API.
const (
	DefaultAIRatePerSec = 5.0
	DefaultAIBurst      = 5
)

// AIOption configures an AIClassifier.
type AIOption func(*AIClassifier)

// WithRateLimit caps API calls at perSec with the given burst. A
// non-positive perSec removes the limit.
func WithRateLimit(perSec float64, burst int) AIOption {
	return func(c *AIClassifier) {
		if perSec <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), max(burst, 1))
	}
}

// NewAIClassifier creates an AIClassifier.
func NewAIClassifier(client anthropic.Client, model string, maxTokens int, opts ...AIOption) *AIClassifier {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	c := &AIClassifier{
		client:    client,
		model:     model,
		maxTokens: int64(maxTokens),
		breaker:   resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("anthropic")),
		limiter:   rate.NewLimiter(rate.Limit(DefaultAIRatePerSec), DefaultAIBurst),
		fallback:  HeuristicClassifier{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify implements Classifier.
func (c *AIClassifier) Classify(ctx context.Context, f model.ProductFacts) (Classification, error) {
	if cls, ok := hardCategory(f); ok {
		return cls, nil
	}

	log := zap.L().With(zap.String("sku", f.SKU))
	cls, err := c.ask(ctx, f)
	if err != nil {
		log.Warn("carton: ai classifier failed, using heuristic", zap.Error(err))
		return c.fallback.Classify(ctx, f)
	}
	return cls, nil
}

func (c *AIClassifier) ask(ctx context.Context, f model.ProductFacts) (Classification, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Classification{}, eris.Wrap(err, "carton: wait for rate limit")
	}

	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: &temp,
		System: []anthropic.SystemBlock{{
			Text:         classifyPrompt,
			CacheControl: &anthropic.CacheControl{TTL: "5m"},
		}},
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: fmt.Sprintf(productPrompt, f.Title, f.Vendor, f.LeafCategory(), truncate(f.Description, 1500)),
		}},
	}

	resp, err := resilience.ExecuteVal(ctx, c.breaker, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return c.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return Classification{}, eris.Wrap(err, "carton: classify vendor tier")
	}
	resp.Usage.LogCost(c.model, "vendor_tier")

	return parseClassification(resp.Text())
}

func parseClassification(text string) (Classification, error) {
	var cls Classification
	if err := json.Unmarshal([]byte(cleanJSON(text)), &cls); err != nil {
		return Classification{}, eris.Wrap(err, "carton: parse classifier json")
	}
	cls.Tier = Tier(strings.ToLower(strings.TrimSpace(string(cls.Tier))))
	if !cls.Tier.Valid() {
		return Classification{}, eris.Errorf("carton: unknown tier %q", cls.Tier)
	}
	cls.Confidence = min(max(cls.Confidence, 0), 1)
	return cls, nil
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
