package tutor

const (
	MinProgress = 0
	MaxProgress = 100

	// LessonFloor 生成开篇课程后进度至少为 10
	LessonFloor = 10
	// QuestionStep 每次提问成功进度 +5
	QuestionStep = 5
	// TopicStep 每开始一个新主题进度 +10
	TopicStep = 10
	// TopicSpan 每个主题覆盖的进度区间宽度
	TopicSpan = 16
)

func Clamp(p int) int {
	if p < MinProgress {
		return MinProgress
	}
	if p > MaxProgress {
		return MaxProgress
	}
	return p
}

func ApplyLesson(p int) int {
	return Clamp(max(p, LessonFloor))
}

func ApplyQuestion(p int) int {
	return Clamp(p + QuestionStep)
}

func ApplyTopic(p int) int {
	return Clamp(p + TopicStep)
}

// TopicIndex maps accumulated progress to a topic: min(floor(progress/16), n-1).
// Several progress values share one topic, so the mapping is not invertible.
func TopicIndex(progress, n int) int {
	if n <= 0 {
		return 0
	}
	idx := Clamp(progress) / TopicSpan
	if idx > n-1 {
		idx = n - 1
	}
	return idx
}

// NextTopic returns the topic StartNewTopic would teach for the subject's current progress.
func NextTopic(s *Subject) string {
	if len(s.Topics) == 0 {
		return ""
	}
	return s.Topics[TopicIndex(s.Progress, len(s.Topics))]
}

// raise never lets progress go backwards.
func raise(s *Subject, next int) {
	next = Clamp(next)
	if next > s.Progress {
		s.Progress = next
	}
}
