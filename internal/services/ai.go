package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// TaskGenerator drafts tasks from free text.
type TaskGenerator interface {
	GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error)
}

// AIService drafts tasks with an OpenAI chat model.
type AIService struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

// GeneratedTask is a task draft. Drafts are never stored.
type GeneratedTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date"`
}

// NewAIService returns nil when apiKey is empty so callers can treat the
// feature as disabled.
func NewAIService(apiKey, model string) *AIService {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = openai.GPT4o
	}
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  model,
		now:    time.Now,
	}
}

// GenerateTasksFromText analyzes text and extracts tasks using OpenAI GPT
func (s *AIService) GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	currentTime := s.now().Format(time.RFC3339)
	prompt := fmt.Sprintf(`You are a task extraction assistant. Extract the concrete tasks from the text below.

Current time: %s

Text:
%s

Return the extracted tasks as a JSON array in this format:
[
  {
    "title": "short task title",
    "description": "details of the task",
    "priority": "one of LOW, MEDIUM, HIGH, URGENT",
    "due_date": "deadline in ISO8601, e.g. 2025-10-28T23:59:59Z, or null when none is given"
  }
]

Rules:
- Return an empty array [] when there are no tasks
- Convert relative deadlines such as "tomorrow" or "next week" into absolute times
- due_date must be an ISO8601 string or null
- Return JSON only, without any explanation`, currentTime, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseGeneratedTasks(resp.Choices[0].Message.Content)
}

// parseGeneratedTasks accepts the model's answer with or without a
// markdown code fence around the JSON.
func parseGeneratedTasks(content string) ([]GeneratedTask, error) {
	body := strings.TrimSpace(content)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}
	return tasks, nil
}
