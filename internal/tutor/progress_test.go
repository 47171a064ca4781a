package tutor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyLesson(t *testing.T) {
	assert.Equal(t, 10, ApplyLesson(0))
	assert.Equal(t, 10, ApplyLesson(7))
	assert.Equal(t, 40, ApplyLesson(40))
	assert.Equal(t, 100, ApplyLesson(100))
}

func TestApplyQuestionCapsAtHundred(t *testing.T) {
	assert.Equal(t, 5, ApplyQuestion(0))
	assert.Equal(t, 100, ApplyQuestion(95))
	assert.Equal(t, 100, ApplyQuestion(98))
	assert.Equal(t, 100, ApplyQuestion(100))
}

func TestApplyTopicCapsAtHundred(t *testing.T) {
	assert.Equal(t, 10, ApplyTopic(0))
	assert.Equal(t, 100, ApplyTopic(93))
}

func TestTopicIndex(t *testing.T) {
	tests := []struct {
		progress int
		want     int
	}{
		{0, 0},
		{15, 0},
		{16, 1},
		{31, 1},
		{32, 2},
		{79, 4},
		{80, 5},
		{95, 5},
		{100, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TopicIndex(tt.progress, 6), "progress %d", tt.progress)
	}
}

func TestTopicIndexEdgeCases(t *testing.T) {
	assert.Equal(t, 0, TopicIndex(50, 0))
	assert.Equal(t, 0, TopicIndex(99, 1))
	assert.Equal(t, 0, TopicIndex(-20, 6))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-1))
	assert.Equal(t, 100, Clamp(101))
	assert.Equal(t, 42, Clamp(42))
}

func TestRaiseNeverDecreases(t *testing.T) {
	s := &Subject{Progress: 40}
	raise(s, 10)
	assert.Equal(t, 40, s.Progress)
	raise(s, 250)
	assert.Equal(t, 100, s.Progress)
}
