package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"tutor_backend/internal/config"
	"tutor_backend/internal/tutor"
)

// GeminiClient 调用 Google Generative Language API 的 generateContent 接口
type GeminiClient struct {
	config     config.AIConfig
	httpClient *http.Client
}

func NewGeminiClient(cfg config.AIConfig) *GeminiClient {
	return &GeminiClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) endpoint() string {
	base := strings.TrimRight(c.config.BaseURL, "/")
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s", base, c.config.Model, url.QueryEscape(c.config.APIKey))
}

func (c *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: tutorSystemPrompt}}},
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
	}

	var result geminiResponse
	if err := postJSON(ctx, c.httpClient, c.endpoint(), nil, reqBody, &result); err != nil {
		return "", err
	}

	var sb strings.Builder
	if len(result.Candidates) > 0 {
		for _, p := range result.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("AI returned no content")
	}
	return sb.String(), nil
}

func (c *GeminiClient) Lesson(ctx context.Context, req tutor.LessonRequest) (string, error) {
	return c.generate(ctx, lessonPrompt(req))
}

func (c *GeminiClient) Ask(ctx context.Context, req tutor.QuestionRequest) (string, error) {
	return c.generate(ctx, questionPrompt(req))
}

func (c *GeminiClient) Topic(ctx context.Context, req tutor.TopicRequest) (string, error) {
	return c.generate(ctx, topicPrompt(req))
}
