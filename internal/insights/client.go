package insights

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

// LLMClient is the interface both client implementations satisfy.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// WrongAnswer is one incorrectly answered question from a quiz attempt.
type WrongAnswer struct {
	Question      string
	LearnerAnswer string
	CorrectAnswer string
}

// WeakAreaTag is a (topic, category) pair extracted from wrong answers.
type WeakAreaTag struct {
	Topic    string `json:"topic"`
	Category string `json:"category"`
}

// Client wraps an LLMClient with the two calls the submission pipeline
// makes. Both are best-effort for callers: a failed call degrades the
// feature, never the submission.
type Client struct {
	llm   LLMClient
	model string
}

func NewClient() *Client {
	var llm LLMClient
	model := "mock"

	if os.Getenv("MOCK_INSIGHTS") == "true" {
		llm = NewMockClient()
		log.Println("Insights using mock data")
	} else {
		model = os.Getenv("ANTHROPIC_MODEL")
		if model == "" {
			model = "claude-opus-4-5-20251101"
		}
		llm = NewAPIClient(model)
		log.Println("Insights using Anthropic API:", model)
	}

	return &Client{llm: llm, model: model}
}

func (c *Client) ModelName() string {
	return c.model
}

// ExtractWeakAreas classifies wrong answers into weak-area tags.
func (c *Client) ExtractWeakAreas(ctx context.Context, subject, lessonTitle string, gradeLevel int, wrong []WrongAnswer) ([]WeakAreaTag, error) {
	if len(wrong) == 0 {
		return nil, nil
	}

	systemPrompt := WeakAreaSystemPrompt()
	userPrompt := BuildWeakAreaUserPrompt(subject, lessonTitle, gradeLevel, wrong)

	resp, err := c.llm.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("extract weak areas: %w", err)
	}

	tags, err := ParseWeakAreas(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parse weak areas: %w", err)
	}

	return tags, nil
}

// GenerateFeedback produces a short learner-facing summary of what to
// review after a quiz.
func (c *Client) GenerateFeedback(ctx context.Context, subject, lessonTitle string, score int, wrong []WrongAnswer) (string, error) {
	systemPrompt := FeedbackSystemPrompt()
	userPrompt := BuildFeedbackUserPrompt(subject, lessonTitle, score, wrong)

	resp, err := c.llm.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("generate feedback: %w", err)
	}

	feedback := strings.TrimSpace(resp.Content)
	if feedback == "" {
		return "", fmt.Errorf("empty feedback response")
	}

	return feedback, nil
}

// ── APIClient — Anthropic SDK (Production) ─────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
}

func NewAPIClient(model string) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
	)
	return &APIClient{client: &client, model: model}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   1024,
		Temperature: param.NewOpt(0.2),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			sleepDuration := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("Retrying Anthropic API call in %v (attempt %d)", sleepDuration, attempt+1)
			time.Sleep(sleepDuration)
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		log.Printf("Anthropic API attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %w", lastErr)
}

// ── MockClient — Local Development ─────────────────────────

type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	content := `{"weak_areas":[{"topic":"[Mock] fractions","category":"concept"}]}`
	if strings.Contains(systemPrompt, "encouraging tutor") {
		content = "[Mock] Nice effort! Review the questions you missed and try the quiz again."
	}
	return &LLMResponse{
		Content:      content,
		PromptTokens: 300,
		OutputTokens: 60,
	}, nil
}
