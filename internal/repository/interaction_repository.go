package repository

import (
	"tutor_backend/internal/model"

	"gorm.io/gorm"
)

type InteractionRepository struct {
	DB *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{DB: db}
}

func (r *InteractionRepository) Create(record *model.TutorInteraction) error {
	return r.DB.Create(record).Error
}

// ListBySession 按时间倒序返回会话的调用记录
func (r *InteractionRepository) ListBySession(sessionID string, limit int) ([]model.TutorInteraction, error) {
	var records []model.TutorInteraction
	q := r.DB.Where("session_id = ?", sessionID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&records).Error
	return records, err
}

type OperationStat struct {
	Operation string `json:"operation"`
	Total     int64  `json:"total"`
	Failed    int64  `json:"failed"`
}

// StatsBySession 统计各类请求的次数与失败次数
func (r *InteractionRepository) StatsBySession(sessionID string) ([]OperationStat, error) {
	var stats []OperationStat
	err := r.DB.Model(&model.TutorInteraction{}).
		Select("operation, COUNT(*) AS total, SUM(CASE WHEN success THEN 0 ELSE 1 END) AS failed").
		Where("session_id = ?", sessionID).
		Group("operation").
		Order("operation").
		Scan(&stats).Error
	return stats, err
}
