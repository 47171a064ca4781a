package tutor

import (
	"context"
	"strings"
)

type LessonRequest struct {
	Subject string   `json:"subject"`
	Level   string   `json:"level"`
	Topics  []string `json:"topics"`
}

type QuestionRequest struct {
	Question string `json:"question"`
	Subject  string `json:"subject"`
	Level    string `json:"level"`
}

type TopicRequest struct {
	Subject string `json:"subject"`
	Level   string `json:"level"`
	Topic   string `json:"topic"`
}

// LessonRequestFor builds the opening-lesson request; Topics is a copy.
func LessonRequestFor(s *Subject) LessonRequest {
	return LessonRequest{
		Subject: s.Name,
		Level:   s.Level,
		Topics:  append([]string(nil), s.Topics...),
	}
}

func QuestionRequestFor(s *Subject, question string) QuestionRequest {
	return QuestionRequest{Question: question, Subject: s.Name, Level: s.Level}
}

func TopicRequestFor(s *Subject, topic string) TopicRequest {
	return TopicRequest{Subject: s.Name, Level: s.Level, Topic: topic}
}

// Client is the external Tutoring API. Each method performs exactly one call.
type Client interface {
	Lesson(ctx context.Context, req LessonRequest) (string, error)
	Ask(ctx context.Context, req QuestionRequest) (string, error)
	Topic(ctx context.Context, req TopicRequest) (string, error)
}

// Outcome carries exactly one of Content or Err.
type Outcome struct {
	Op       Operation      `json:"operation"`
	Subject  string         `json:"subject"`
	Topic    string         `json:"topic,omitempty"`
	Content  string         `json:"content,omitempty"`
	Err      *RequestFailed `json:"error,omitempty"`
	Before   int            `json:"progressBefore"`
	Progress int            `json:"progress"`
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Core runs the three request operations against a Client and applies the
// resulting progress transition to the session it is handed.
type Core struct {
	client Client
}

func NewCore(client Client) *Core {
	return &Core{client: client}
}

func (c *Core) RequestLesson(ctx context.Context, s *Session, subjectID string) (Outcome, error) {
	subject, ok := s.Catalog.Get(subjectID)
	if !ok {
		return Outcome{}, ErrUnknownSubject
	}
	out := Outcome{Op: OpLesson, Subject: subjectID, Before: subject.Progress, Progress: subject.Progress}

	content, err := c.client.Lesson(ctx, LessonRequestFor(subject))
	if err != nil {
		out.Err = NewRequestFailed(OpLesson, err)
		return out, nil
	}

	raise(subject, ApplyLesson(subject.Progress))
	out.Content = content
	out.Progress = subject.Progress
	return out, nil
}

// AskQuestion returns ok=false without calling the API when the question is blank
// or no subject is selected.
func (c *Core) AskQuestion(ctx context.Context, s *Session, text string) (out Outcome, ok bool) {
	subject, selected := s.Selected()
	if strings.TrimSpace(text) == "" || !selected {
		return Outcome{}, false
	}
	out = Outcome{Op: OpQuestion, Subject: subject.ID, Before: subject.Progress, Progress: subject.Progress}

	content, err := c.client.Ask(ctx, QuestionRequestFor(subject, text))
	if err != nil {
		out.Err = NewRequestFailed(OpQuestion, err)
		return out, true
	}

	raise(subject, ApplyQuestion(subject.Progress))
	out.Content = content
	out.Progress = subject.Progress
	return out, true
}

func (c *Core) StartNewTopic(ctx context.Context, s *Session, subjectID string) (Outcome, error) {
	subject, ok := s.Catalog.Get(subjectID)
	if !ok {
		return Outcome{}, ErrUnknownSubject
	}
	topic := NextTopic(subject)
	out := Outcome{Op: OpTopic, Subject: subjectID, Topic: topic, Before: subject.Progress, Progress: subject.Progress}

	content, err := c.client.Topic(ctx, TopicRequestFor(subject, topic))
	if err != nil {
		out.Err = NewRequestFailed(OpTopic, err)
		return out, nil
	}

	raise(subject, ApplyTopic(subject.Progress))
	out.Content = content
	out.Progress = subject.Progress
	return out, nil
}
