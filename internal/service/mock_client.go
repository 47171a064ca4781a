package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"tutor_backend/internal/tutor"
)

// MockTutorClient 本地演示用：固定延迟后返回预置内容，不访问网络
type MockTutorClient struct {
	delay time.Duration
}

func NewMockTutorClient(delay time.Duration) *MockTutorClient {
	return &MockTutorClient{delay: delay}
}

func (c *MockTutorClient) wait(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *MockTutorClient) Lesson(ctx context.Context, req tutor.LessonRequest) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("# Welcome to %s\n\nThis %s course covers:\n\n- %s\n",
		req.Subject, strings.ToLower(req.Level), strings.Join(req.Topics, "\n- ")), nil
}

func (c *MockTutorClient) Ask(ctx context.Context, req tutor.QuestionRequest) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("Thank you for your question about %s: %q. "+
		"This is a simulated tutor, so no real answer is available.", req.Subject, req.Question), nil
}

func (c *MockTutorClient) Topic(ctx context.Context, req tutor.TopicRequest) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("## %s\n\nA simulated introduction to %s in %s.\n", req.Topic, req.Topic, req.Subject), nil
}
