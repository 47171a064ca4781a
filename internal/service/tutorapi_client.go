package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"tutor_backend/internal/config"
	"tutor_backend/internal/tutor"
)

// TutorAPIClient 调用自建辅导服务：POST {base_url}/tutor/{lesson,ask,topic}，返回 {"content": "..."}
type TutorAPIClient struct {
	config     config.AIConfig
	httpClient *http.Client
}

func NewTutorAPIClient(cfg config.AIConfig) *TutorAPIClient {
	return &TutorAPIClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type tutorAPIResponse struct {
	Content string `json:"content"`
}

func (c *TutorAPIClient) call(ctx context.Context, path string, body any) (string, error) {
	var headers map[string]string
	if c.config.APIKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + c.config.APIKey}
	}

	var result tutorAPIResponse
	url := strings.TrimRight(c.config.BaseURL, "/") + "/tutor/" + path
	if err := postJSON(ctx, c.httpClient, url, headers, body, &result); err != nil {
		return "", err
	}
	if result.Content == "" {
		return "", fmt.Errorf("tutor API returned empty content")
	}
	return result.Content, nil
}

func (c *TutorAPIClient) Lesson(ctx context.Context, req tutor.LessonRequest) (string, error) {
	return c.call(ctx, "lesson", req)
}

func (c *TutorAPIClient) Ask(ctx context.Context, req tutor.QuestionRequest) (string, error) {
	return c.call(ctx, "ask", req)
}

func (c *TutorAPIClient) Topic(ctx context.Context, req tutor.TopicRequest) (string, error) {
	return c.call(ctx, "topic", req)
}
