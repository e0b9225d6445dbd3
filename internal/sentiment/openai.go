package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/azure/mentions-dashboard/internal/config"
	"github.com/azure/mentions-dashboard/internal/metrics"
	"github.com/azure/mentions-dashboard/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const systemPrompt = `You are a sentiment analysis expert for brand monitoring.
Analyze the sentiment of the given text and answer in JSON with:
- sentiment: "positive", "negative" or "neutral"
- confidence: a number between 0 and 1 indicating confidence in the analysis
- reasoning: a short explanation of the classification (optional)

Consider business and commercial context, irony and sarcasm, colloquial
expressions, emojis and emoticons.`

// defaultConfidence is recorded when the model omits a confidence
const defaultConfidence = 0.5

// OpenAIClassifier classifies text through an OpenAI-compatible chat completions API
type OpenAIClassifier struct {
	client  *resty.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
}

// Ensure OpenAIClassifier implements Classifier
var _ Classifier = (*OpenAIClassifier)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type classification struct {
	Sentiment  string   `json:"sentiment"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// NewOpenAIClassifier creates a classifier from the OpenAI settings in cfg
func NewOpenAIClassifier(cfg *config.Config) *OpenAIClassifier {
	return &OpenAIClassifier{
		client: resty.New().
			SetBaseURL(strings.TrimRight(cfg.OpenAIBaseURL, "/")).
			SetAuthToken(cfg.OpenAIAPIKey).
			SetHeader("User-Agent", "Mentions-Dashboard/1.0"),
		model:   cfg.OpenAIModel,
		timeout: cfg.ClassifierTimeout,
		limiter: rate.NewLimiter(rate.Limit(cfg.ClassifierRPS), cfg.ClassifierBurst),
	}
}

func (c *OpenAIClassifier) Name() string {
	return "openai"
}

// Classify sends text to the model once; there is no retry
func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (result *Result, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveClassification(start, err)
		if err != nil {
			err = &ClassificationError{Classifier: c.Name(), Err: err}
		}
	}()

	content, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("Analyze the sentiment of this text: %q", text)},
	}, true)
	if err != nil {
		return nil, err
	}

	return parseClassification(content)
}

// complete runs one rate-limited chat completion under the per-call timeout
// and returns the content of the first choice
func (c *OpenAIClassifier) complete(ctx context.Context, messages []chatMessage, jsonMode bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	body := chatRequest{Model: c.model, Messages: messages}
	if jsonMode {
		body.ResponseFormat = map[string]string{"type": "json_object"}
	}

	var completion chatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&completion).
		Post("/chat/completions")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("request timed out after %s: %w", c.timeout, context.DeadlineExceeded)
		}
		return "", fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		logrus.Debugf("Classifier error body: %s", string(resp.Body()))
		return "", fmt.Errorf("classifier returned status %d", resp.StatusCode())
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("classifier returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

// parseClassification maps the model's JSON answer onto a Result. Unknown
// labels become neutral and a missing confidence becomes 0.5.
func parseClassification(content string) (*Result, error) {
	if strings.TrimSpace(content) == "" {
		content = "{}"
	}

	var raw classification
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode classifier answer: %w", err)
	}

	label := models.Sentiment(strings.ToLower(strings.TrimSpace(raw.Sentiment)))
	if !label.Valid() {
		label = models.SentimentNeutral
	}

	confidence := defaultConfidence
	if raw.Confidence != nil {
		confidence = *raw.Confidence
	}

	return &Result{
		Sentiment:  label,
		Confidence: clampConfidence(confidence),
		Reasoning:  raw.Reasoning,
	}, nil
}
