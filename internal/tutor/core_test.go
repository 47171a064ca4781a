package tutor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	content string
	err     error

	lessons   []LessonRequest
	questions []QuestionRequest
	topics    []TopicRequest
}

func (f *fakeClient) Lesson(_ context.Context, req LessonRequest) (string, error) {
	f.lessons = append(f.lessons, req)
	return f.content, f.err
}

func (f *fakeClient) Ask(_ context.Context, req QuestionRequest) (string, error) {
	f.questions = append(f.questions, req)
	return f.content, f.err
}

func (f *fakeClient) Topic(_ context.Context, req TopicRequest) (string, error) {
	f.topics = append(f.topics, req)
	return f.content, f.err
}

func setProgress(t *testing.T, s *Session, id string, p int) {
	t.Helper()
	sub, ok := s.Catalog.Get(id)
	require.True(t, ok)
	sub.Progress = p
}

func progressOf(s *Session, id string) int {
	sub, _ := s.Catalog.Get(id)
	return sub.Progress
}

func TestRequestLessonSuccess(t *testing.T) {
	client := &fakeClient{content: "# Lesson"}
	core := NewCore(client)
	s := newTestSession()

	out, err := core.RequestLesson(context.Background(), s, "math-primary")
	require.NoError(t, err)
	assert.False(t, out.Failed())
	assert.Equal(t, "# Lesson", out.Content)
	assert.Equal(t, 0, out.Before)
	assert.Equal(t, 10, out.Progress)
	assert.Equal(t, 10, progressOf(s, "math-primary"))

	require.Len(t, client.lessons, 1)
	assert.Equal(t, "Primary Mathematics", client.lessons[0].Subject)
	assert.Equal(t, "Primary", client.lessons[0].Level)
	assert.Len(t, client.lessons[0].Topics, 6)
}

func TestRequestLessonKeepsHigherProgress(t *testing.T) {
	core := NewCore(&fakeClient{content: "x"})
	s := newTestSession()
	setProgress(t, s, "math-secondary", 40)

	out, err := core.RequestLesson(context.Background(), s, "math-secondary")
	require.NoError(t, err)
	assert.Equal(t, 40, out.Progress)
	assert.Equal(t, 40, progressOf(s, "math-secondary"))
}

func TestRequestLessonUnknownSubject(t *testing.T) {
	client := &fakeClient{content: "x"}
	_, err := NewCore(client).RequestLesson(context.Background(), newTestSession(), "art")
	assert.ErrorIs(t, err, ErrUnknownSubject)
	assert.Empty(t, client.lessons)
}

func TestAskQuestionNoOp(t *testing.T) {
	client := &fakeClient{content: "answer"}
	core := NewCore(client)

	s := newTestSession()
	_, ok := core.AskQuestion(context.Background(), s, "what is a fraction?")
	assert.False(t, ok, "no subject selected")

	_, err := SelectSubject(s, "math-primary")
	require.NoError(t, err)
	_, ok = core.AskQuestion(context.Background(), s, "   \t\n")
	assert.False(t, ok, "blank question")

	assert.Empty(t, client.questions)
	assert.Equal(t, 0, progressOf(s, "math-primary"))
}

func TestAskQuestionIncrementsByFive(t *testing.T) {
	client := &fakeClient{content: "answer"}
	core := NewCore(client)
	s := newTestSession()
	_, err := SelectSubject(s, "science-secondary")
	require.NoError(t, err)
	setProgress(t, s, "science-secondary", 98)

	out, ok := core.AskQuestion(context.Background(), s, "why is the sky blue?")
	require.True(t, ok)
	assert.Equal(t, "answer", out.Content)
	assert.Equal(t, 100, out.Progress)

	require.Len(t, client.questions, 1)
	assert.Equal(t, QuestionRequest{
		Question: "why is the sky blue?",
		Subject:  "Secondary Science",
		Level:    "Secondary",
	}, client.questions[0])
}

func TestStartNewTopicPicksTopicFromProgress(t *testing.T) {
	tests := []struct {
		progress int
		topic    string
		after    int
	}{
		{0, "Living Things", 10},
		{15, "Living Things", 25},
		{16, "Plants and Animals", 26},
		{31, "Plants and Animals", 41},
		{80, "Earth and Space", 90},
		{95, "Earth and Space", 100},
	}
	for _, tt := range tests {
		client := &fakeClient{content: "topic"}
		s := newTestSession()
		setProgress(t, s, "science-primary", tt.progress)

		out, err := NewCore(client).StartNewTopic(context.Background(), s, "science-primary")
		require.NoError(t, err)
		assert.Equal(t, tt.topic, out.Topic)
		require.Len(t, client.topics, 1)
		assert.Equal(t, tt.topic, client.topics[0].Topic)
		assert.Equal(t, tt.after, progressOf(s, "science-primary"))
	}
}

func TestFailedRequestsLeaveStateUnchanged(t *testing.T) {
	ctx := context.Background()
	core := NewCore(&fakeClient{err: errors.New("upstream exploded")})
	s := newTestSession()
	_, err := SelectSubject(s, "math-primary")
	require.NoError(t, err)
	setProgress(t, s, "math-primary", 33)

	lesson, err := core.RequestLesson(ctx, s, "math-primary")
	require.NoError(t, err)
	ask, ok := core.AskQuestion(ctx, s, "help")
	require.True(t, ok)
	topic, err := core.StartNewTopic(ctx, s, "math-primary")
	require.NoError(t, err)

	for _, out := range []Outcome{lesson, ask, topic} {
		require.True(t, out.Failed())
		assert.Empty(t, out.Content)
		assert.Equal(t, "upstream exploded", out.Err.Message)
		assert.Equal(t, 33, out.Progress)
	}
	assert.Equal(t, 33, progressOf(s, "math-primary"))
	assert.Equal(t, "math-primary", s.SelectedSubject)
}

func TestRequestFailedFallbackMessage(t *testing.T) {
	assert.Equal(t, "Failed to generate lesson", NewRequestFailed(OpLesson, nil).Message)
	assert.Equal(t, "Failed to get answer", NewRequestFailed(OpQuestion, errors.New("  ")).Message)
	assert.Equal(t, "Failed to load new topic", NewRequestFailed(OpTopic, nil).Message)

	cause := errors.New("boom")
	rf := NewRequestFailed(OpTopic, cause)
	assert.ErrorIs(t, rf, cause)
}

func TestProgressStaysInRangeOverLongRuns(t *testing.T) {
	ctx := context.Background()
	core := NewCore(&fakeClient{content: "ok"})
	s := newTestSession()
	_, err := SelectSubject(s, "math-secondary")
	require.NoError(t, err)

	last := 0
	for i := 0; i < 60; i++ {
		switch i % 3 {
		case 0:
			_, err = core.RequestLesson(ctx, s, "math-secondary")
			require.NoError(t, err)
		case 1:
			core.AskQuestion(ctx, s, "q")
		case 2:
			_, err = core.StartNewTopic(ctx, s, "math-secondary")
			require.NoError(t, err)
		}
		p := progressOf(s, "math-secondary")
		assert.GreaterOrEqual(t, p, last)
		assert.LessOrEqual(t, p, 100)
		last = p
	}
	assert.Equal(t, 100, last)
}

func TestRequestBuildersUseDisplayNames(t *testing.T) {
	cat := DefaultCatalog()
	sub, ok := cat.Get("science-secondary")
	require.True(t, ok)

	lesson := LessonRequestFor(sub)
	assert.Equal(t, sub.Name, lesson.Subject)
	assert.Equal(t, "Secondary", lesson.Level)
	assert.Equal(t, sub.Topics, lesson.Topics)
	lesson.Topics[0] = "changed"
	assert.NotEqual(t, "changed", sub.Topics[0])

	q := QuestionRequestFor(sub, "why is the sky blue?")
	assert.Equal(t, QuestionRequest{Question: "why is the sky blue?", Subject: sub.Name, Level: sub.Level}, q)

	topic := TopicRequestFor(sub, sub.Topics[2])
	assert.Equal(t, TopicRequest{Subject: sub.Name, Level: sub.Level, Topic: sub.Topics[2]}, topic)
}
