package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"tutor_backend/internal/config"
	"tutor_backend/internal/tutor"
)

// OpenAIClient 兼容 OpenAI 的 /chat/completions 接口
type OpenAIClient struct {
	config     config.AIConfig
	httpClient *http.Client
}

func NewOpenAIClient(cfg config.AIConfig) *OpenAIClient {
	return &OpenAIClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []AIChatMessage `json:"messages"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) chat(ctx context.Context, prompt string) (string, error) {
	reqBody := ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []AIChatMessage{
			{Role: "system", Content: tutorSystemPrompt},
			{Role: "user", Content: prompt},
		},
	}

	headers := map[string]string{"Authorization": "Bearer " + c.config.APIKey}
	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"

	var result ChatCompletionResponse
	if err := postJSON(ctx, c.httpClient, url, headers, reqBody, &result); err != nil {
		return "", err
	}

	if len(result.Choices) > 0 && result.Choices[0].Message.Content != "" {
		return result.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("AI returned no choices")
}

func (c *OpenAIClient) Lesson(ctx context.Context, req tutor.LessonRequest) (string, error) {
	return c.chat(ctx, lessonPrompt(req))
}

func (c *OpenAIClient) Ask(ctx context.Context, req tutor.QuestionRequest) (string, error) {
	return c.chat(ctx, questionPrompt(req))
}

func (c *OpenAIClient) Topic(ctx context.Context, req tutor.TopicRequest) (string, error) {
	return c.chat(ctx, topicPrompt(req))
}
