package tutor

import (
	"errors"
	"strings"
)

var (
	ErrUnknownSubject    = errors.New("unknown subject")
	ErrNoSubjectSelected = errors.New("no subject selected")
	ErrUnknownSection    = errors.New("unknown section")
	ErrUnknownScreen     = errors.New("unknown screen")
)

// Operation names the three outbound request kinds.
type Operation string

const (
	OpLesson   Operation = "lesson"
	OpQuestion Operation = "ask"
	OpTopic    Operation = "topic"
)

var fallbackMessages = map[Operation]string{
	OpLesson:   "Failed to generate lesson",
	OpQuestion: "Failed to get answer",
	OpTopic:    "Failed to load new topic",
}

// RequestFailed is the only error kind a request operation surfaces.
type RequestFailed struct {
	Op      Operation `json:"operation"`
	Message string    `json:"message"`
	cause   error
}

func (e *RequestFailed) Error() string {
	return string(e.Op) + ": " + e.Message
}

func (e *RequestFailed) Unwrap() error {
	return e.cause
}

// NewRequestFailed builds a RequestFailed from a failed call; the message is never empty.
func NewRequestFailed(op Operation, cause error) *RequestFailed {
	msg := ""
	if cause != nil {
		msg = strings.TrimSpace(cause.Error())
	}
	if msg == "" {
		msg = fallbackMessages[op]
	}
	if msg == "" {
		msg = "request failed"
	}
	return &RequestFailed{Op: op, Message: msg, cause: cause}
}
