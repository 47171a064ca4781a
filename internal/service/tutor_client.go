package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"tutor_backend/internal/config"
	"tutor_backend/internal/tutor"
	"tutor_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// NewTutorClient 根据 ai.provider 选择外部辅导 API 的实现
func NewTutorClient(cfg config.AIConfig) (tutor.Client, error) {
	switch cfg.Provider {
	case config.AIProviderGemini:
		return NewGeminiClient(cfg), nil
	case config.AIProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	case config.AIProviderTutorAPI:
		return NewTutorAPIClient(cfg), nil
	case config.AIProviderMock:
		return NewMockTutorClient(cfg.MockDelay), nil
	}
	return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
}

// ReloadableClient forwards to the current client; Swap replaces it when the config file changes.
type ReloadableClient struct {
	current atomic.Pointer[clientHolder]
}

type clientHolder struct {
	client tutor.Client
}

func NewReloadableClient(client tutor.Client) *ReloadableClient {
	r := &ReloadableClient{}
	r.Swap(client)
	return r
}

func (r *ReloadableClient) Swap(client tutor.Client) {
	r.current.Store(&clientHolder{client: client})
}

func (r *ReloadableClient) Lesson(ctx context.Context, req tutor.LessonRequest) (string, error) {
	return r.current.Load().client.Lesson(ctx, req)
}

func (r *ReloadableClient) Ask(ctx context.Context, req tutor.QuestionRequest) (string, error) {
	return r.current.Load().client.Ask(ctx, req)
}

func (r *ReloadableClient) Topic(ctx context.Context, req tutor.TopicRequest) (string, error) {
	return r.current.Load().client.Topic(ctx, req)
}

// TracedClient 为每次外部调用创建一个 span
type TracedClient struct {
	next     tutor.Client
	provider string
}

func NewTracedClient(next tutor.Client, provider string) *TracedClient {
	return &TracedClient{next: next, provider: provider}
}

func (c *TracedClient) trace(ctx context.Context, op tutor.Operation, subject string, call func(context.Context) (string, error)) (string, error) {
	ctx, span := tracing.Tracer.Start(ctx, "tutoring_api."+string(op))
	defer span.End()
	span.SetAttributes(
		attribute.String("tutor.provider", c.provider),
		attribute.String("tutor.subject", subject),
	)

	content, err := call(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return content, err
}

func (c *TracedClient) Lesson(ctx context.Context, req tutor.LessonRequest) (string, error) {
	return c.trace(ctx, tutor.OpLesson, req.Subject, func(ctx context.Context) (string, error) {
		return c.next.Lesson(ctx, req)
	})
}

func (c *TracedClient) Ask(ctx context.Context, req tutor.QuestionRequest) (string, error) {
	return c.trace(ctx, tutor.OpQuestion, req.Subject, func(ctx context.Context) (string, error) {
		return c.next.Ask(ctx, req)
	})
}

func (c *TracedClient) Topic(ctx context.Context, req tutor.TopicRequest) (string, error) {
	return c.trace(ctx, tutor.OpTopic, req.Subject, func(ctx context.Context) (string, error) {
		return c.next.Topic(ctx, req)
	})
}

// 三种请求共用的提示词

const tutorSystemPrompt = "You are a patient, encouraging tutor for school students. " +
	"Answer at the student's level, use short sections and worked examples, and format the answer in Markdown."

func lessonPrompt(req tutor.LessonRequest) string {
	return fmt.Sprintf("Create an introductory lesson for %s (%s level). "+
		"Give an overview of the course and briefly introduce these topics in order:\n- %s\n"+
		"Finish with one simple question the student can try.",
		req.Subject, req.Level, strings.Join(req.Topics, "\n- "))
}

func questionPrompt(req tutor.QuestionRequest) string {
	return fmt.Sprintf("A %s level student studying %s asks:\n\n%s\n\n"+
		"Explain the answer step by step.",
		req.Level, req.Subject, req.Question)
}

func topicPrompt(req tutor.TopicRequest) string {
	return fmt.Sprintf("Teach the topic \"%s\" from %s (%s level). "+
		"Explain the key ideas, give two worked examples and end with three practice questions.",
		req.Topic, req.Subject, req.Level)
}

// apiError 兼容 {"error":{"message":"..."}} 与 {"error":"..."} 两种错误格式
type apiError struct {
	Message string
}

func (e *apiError) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.Message = s
		return nil
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	e.Message = obj.Message
	return nil
}

type errorEnvelope struct {
	Error *apiError `json:"error,omitempty"`
}

// upstreamError extracts the provider's error message from a non-2xx body, falling back to the status.
func upstreamError(status int, body []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil && strings.TrimSpace(env.Error.Message) != "" {
		return errors.New(env.Error.Message)
	}
	return fmt.Errorf("AI API error (status %d)", status)
}

// postJSON 发送 JSON 请求，非 2xx 时返回上游错误信息，成功时解码到 out
func postJSON(ctx context.Context, httpClient *http.Client, url string, headers map[string]string, in, out any) error {
	jsonData, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return upstreamError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode AI response: %w", err)
	}
	return nil
}
