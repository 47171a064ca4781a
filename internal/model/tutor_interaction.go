package model

import "time"

// TutorInteraction 记录每一次对外部辅导 API 的调用（开篇课程 / 提问 / 新主题）
type TutorInteraction struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID      string    `gorm:"size:36;index" json:"sessionId"`
	SubjectID      string    `gorm:"size:50;index" json:"subjectId"`
	Operation      string    `gorm:"size:20" json:"operation"` // lesson / ask / topic
	Question       string    `gorm:"type:text" json:"question,omitempty"`
	Topic          string    `gorm:"size:200" json:"topic,omitempty"`
	Success        bool      `json:"success"`
	ErrorMessage   string    `gorm:"type:text" json:"errorMessage,omitempty"`
	ProgressBefore int       `json:"progressBefore"`
	ProgressAfter  int       `json:"progressAfter"`
	DurationMs     int64     `json:"durationMs"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
}

func (TutorInteraction) TableName() string {
	return "tutor_interactions"
}
