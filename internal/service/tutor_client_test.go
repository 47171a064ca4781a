package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"tutor_backend/internal/config"
	"tutor_backend/internal/tutor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLesson = tutor.LessonRequest{
	Subject: "Primary Mathematics",
	Level:   "Primary",
	Topics:  []string{"Multiplication Tables", "Division Basics"},
}

func TestGeminiClientGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "k&1", r.URL.Query().Get("key"))

		var body geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		assert.Contains(t, body.Contents[0].Parts[0].Text, "Primary Mathematics")
		assert.Contains(t, body.Contents[0].Parts[0].Text, "Division Basics")
		require.NotNil(t, body.SystemInstruction)

		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"# Lesson"},{"text":" one"}]}}]}`)
	}))
	defer srv.Close()

	client := NewGeminiClient(config.AIConfig{BaseURL: srv.URL + "/v1beta/", APIKey: "k&1", Model: "gemini-2.0-flash", Timeout: time.Second})
	content, err := client.Lesson(context.Background(), testLesson)
	require.NoError(t, err)
	assert.Equal(t, "# Lesson one", content)
}

func TestGeminiClientSurfacesUpstreamMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`)
	}))
	defer srv.Close()

	client := NewGeminiClient(config.AIConfig{BaseURL: srv.URL, Model: "m", Timeout: time.Second})
	_, err := client.Ask(context.Background(), tutor.QuestionRequest{Question: "q", Subject: "s", Level: "l"})
	assert.EqualError(t, err, "API key not valid")
}

func TestGeminiClientEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	client := NewGeminiClient(config.AIConfig{BaseURL: srv.URL, Model: "m", Timeout: time.Second})
	_, err := client.Topic(context.Background(), tutor.TopicRequest{Topic: "Fractions"})
	assert.Error(t, err)
}

func TestOpenAIClientChatCompletions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body.Model)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Contains(t, body.Messages[1].Content, "Quadratic Equations")

		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"x = 2"}}]}`)
	}))
	defer srv.Close()

	client := NewOpenAIClient(config.AIConfig{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-test", Timeout: time.Second})
	content, err := client.Topic(context.Background(), tutor.TopicRequest{Subject: "Secondary Mathematics", Level: "Secondary", Topic: "Quadratic Equations"})
	require.NoError(t, err)
	assert.Equal(t, "x = 2", content)
}

func TestOpenAIClientStatusWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewOpenAIClient(config.AIConfig{BaseURL: srv.URL, Timeout: time.Second})
	_, err := client.Lesson(context.Background(), testLesson)
	assert.EqualError(t, err, "AI API error (status 503)")
}

func TestTutorAPIClientPostsLogicalShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/tutor/lesson":
			assert.JSONEq(t, `{"subject":"Primary Mathematics","level":"Primary","topics":["Multiplication Tables","Division Basics"]}`, string(raw))
			_, _ = io.WriteString(w, `{"content":"lesson"}`)
		case "/tutor/ask":
			assert.JSONEq(t, `{"question":"why?","subject":"S","level":"L"}`, string(raw))
			_, _ = io.WriteString(w, `{"content":"because"}`)
		case "/tutor/topic":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":"topic generator offline"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewTutorAPIClient(config.AIConfig{BaseURL: srv.URL, Timeout: time.Second})
	ctx := context.Background()

	content, err := client.Lesson(ctx, testLesson)
	require.NoError(t, err)
	assert.Equal(t, "lesson", content)

	content, err = client.Ask(ctx, tutor.QuestionRequest{Question: "why?", Subject: "S", Level: "L"})
	require.NoError(t, err)
	assert.Equal(t, "because", content)

	_, err = client.Topic(ctx, tutor.TopicRequest{Subject: "S", Level: "L", Topic: "T"})
	assert.EqualError(t, err, "topic generator offline")
}

func TestClientTimeoutBecomesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewTutorAPIClient(config.AIConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := client.Lesson(context.Background(), testLesson)
	assert.Error(t, err)
}

func TestMockTutorClient(t *testing.T) {
	client := NewMockTutorClient(0)
	content, err := client.Lesson(context.Background(), testLesson)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(content, "# Welcome to Primary Mathematics"))

	slow := NewMockTutorClient(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = slow.Ask(ctx, tutor.QuestionRequest{Question: "q"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewTutorClientSelectsProvider(t *testing.T) {
	for provider, want := range map[string]any{
		config.AIProviderGemini:   &GeminiClient{},
		config.AIProviderOpenAI:   &OpenAIClient{},
		config.AIProviderTutorAPI: &TutorAPIClient{},
		config.AIProviderMock:     &MockTutorClient{},
	} {
		client, err := NewTutorClient(config.AIConfig{Provider: provider, Timeout: time.Second})
		require.NoError(t, err)
		assert.IsType(t, want, client, provider)
	}

	_, err := NewTutorClient(config.AIConfig{Provider: "llama"})
	assert.Error(t, err)
}

type staticClient struct {
	content string
	err     error
}

func (c staticClient) Lesson(context.Context, tutor.LessonRequest) (string, error) {
	return c.content, c.err
}

func (c staticClient) Ask(context.Context, tutor.QuestionRequest) (string, error) {
	return c.content, c.err
}

func (c staticClient) Topic(context.Context, tutor.TopicRequest) (string, error) {
	return c.content, c.err
}

func TestReloadableClientSwap(t *testing.T) {
	r := NewReloadableClient(staticClient{content: "old"})
	content, err := r.Lesson(context.Background(), testLesson)
	require.NoError(t, err)
	assert.Equal(t, "old", content)

	r.Swap(staticClient{content: "new"})
	content, err = r.Ask(context.Background(), tutor.QuestionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "new", content)
}

func TestTracedClientPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	c := NewTracedClient(staticClient{err: boom}, "mock")
	_, err := c.Topic(context.Background(), tutor.TopicRequest{})
	assert.ErrorIs(t, err, boom)

	c = NewTracedClient(staticClient{content: "ok"}, "mock")
	content, err := c.Lesson(context.Background(), testLesson)
	require.NoError(t, err)
	assert.Equal(t, "ok", content)
}
