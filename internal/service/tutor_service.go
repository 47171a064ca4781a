package service

import (
	"context"
	"errors"
	"time"
	"tutor_backend/internal/config"
	"tutor_backend/internal/model"
	"tutor_backend/internal/repository"
	"tutor_backend/internal/tutor"
	"tutor_backend/pkg/logger"
	"tutor_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// InteractionStore 调用记录的持久化接口
type InteractionStore interface {
	Create(record *model.TutorInteraction) error
	ListBySession(sessionID string, limit int) ([]model.TutorInteraction, error)
	StatsBySession(sessionID string) ([]repository.OperationStat, error)
}

type TutorService struct {
	sessions     repository.SessionRepository
	interactions InteractionStore
	core         *tutor.Core
	cfg          config.SessionConfig
	newCatalog   func() *tutor.Catalog
	now          func() time.Time
}

func NewTutorService(sessions repository.SessionRepository, interactions InteractionStore, client tutor.Client, cfg config.SessionConfig) *TutorService {
	return &TutorService{
		sessions:     sessions,
		interactions: interactions,
		core:         tutor.NewCore(client),
		cfg:          cfg,
		newCatalog:   tutor.DefaultCatalog,
		now:          time.Now,
	}
}

// SessionResult 每个会话操作的返回：最新会话状态，以及可能发生的一次外部调用结果
type SessionResult struct {
	Session  *tutor.Session `json:"session"`
	Outcome  *tutor.Outcome `json:"outcome,omitempty"`
	Progress *int           `json:"progress,omitempty"`
	Skipped  bool           `json:"skipped,omitempty"`
}

type History struct {
	Interactions []model.TutorInteraction  `json:"interactions"`
	Stats        []repository.OperationStat `json:"stats"`
}

func (s *TutorService) ListSubjects() []tutor.Subject {
	return s.newCatalog().Subjects()
}

func (s *TutorService) CreateSession(ctx context.Context) (*tutor.Session, error) {
	sess := tutor.NewSession(model.GenerateUUID(), s.newCatalog(), s.now())
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	monitoring.SessionsCreated.Inc()
	logger.Log.Info("tutor session created", zap.String("session_id", sess.ID))
	return sess, nil
}

func (s *TutorService) GetSession(ctx context.Context, id string) (*tutor.Session, error) {
	return s.sessions.Get(ctx, id)
}

// withSession 在会话锁内完成 读取 -> 修改 -> 保存，同一会话的请求按顺序执行
func (s *TutorService) withSession(ctx context.Context, id string, fn func(sess *tutor.Session) (*SessionResult, error)) (*SessionResult, error) {
	lockCtx := ctx
	if s.cfg.LockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.cfg.LockTimeout)
		defer cancel()
	}
	unlock, err := s.sessions.Lock(lockCtx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := fn(sess)
	if err != nil {
		return nil, err
	}
	// 空操作不写回，也不刷新过期时间
	if res.Skipped {
		res.Session = sess
		return res, nil
	}

	sess.UpdatedAt = s.now()
	// 保存与请求是否被取消无关，外部调用已经完成
	if err := s.sessions.Save(context.WithoutCancel(ctx), sess); err != nil {
		return nil, err
	}
	res.Session = sess
	return res, nil
}

// SelectSubject selects a subject and, when the AI tutor screen is showing, starts its lesson.
func (s *TutorService) SelectSubject(ctx context.Context, id, subjectID string) (*SessionResult, error) {
	return s.withSession(ctx, id, func(sess *tutor.Session) (*SessionResult, error) {
		progress, err := tutor.SelectSubject(sess, subjectID)
		if err != nil {
			return nil, err
		}
		res := &SessionResult{Progress: &progress}
		if sess.CurrentScreen == tutor.ScreenAITutor {
			out, err := s.lesson(ctx, sess, subjectID)
			if err != nil {
				return nil, err
			}
			res.Outcome = out
		}
		return res, nil
	})
}

// RequestLesson generates the opening lesson; an empty subjectID means the selected subject.
func (s *TutorService) RequestLesson(ctx context.Context, id, subjectID string) (*SessionResult, error) {
	return s.withSession(ctx, id, func(sess *tutor.Session) (*SessionResult, error) {
		subjectID, err := resolveSubject(sess, subjectID)
		if err != nil {
			return nil, err
		}
		out, err := s.lesson(ctx, sess, subjectID)
		if err != nil {
			return nil, err
		}
		return &SessionResult{Outcome: out}, nil
	})
}

func (s *TutorService) AskQuestion(ctx context.Context, id, question string) (*SessionResult, error) {
	return s.withSession(ctx, id, func(sess *tutor.Session) (*SessionResult, error) {
		start := time.Now()
		out, ok := s.core.AskQuestion(ctx, sess, question)
		if !ok {
			return &SessionResult{Skipped: true}, nil
		}
		s.record(sess, out, question, time.Since(start))
		return &SessionResult{Outcome: &out}, nil
	})
}

func (s *TutorService) StartNewTopic(ctx context.Context, id, subjectID string) (*SessionResult, error) {
	return s.withSession(ctx, id, func(sess *tutor.Session) (*SessionResult, error) {
		subjectID, err := resolveSubject(sess, subjectID)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		out, err := s.core.StartNewTopic(ctx, sess, subjectID)
		if err != nil {
			return nil, err
		}
		s.record(sess, out, "", time.Since(start))
		return &SessionResult{Outcome: &out}, nil
	})
}

func (s *TutorService) ShowSection(ctx context.Context, id string, section tutor.Section) (*SessionResult, error) {
	return s.withSession(ctx, id, func(sess *tutor.Session) (*SessionResult, error) {
		if err := tutor.ShowSection(sess, section); err != nil {
			return nil, err
		}
		return &SessionResult{}, nil
	})
}

// OpenAITutor 进入 AI 辅导页面；已选择课程时立即生成开篇课程
func (s *TutorService) OpenAITutor(ctx context.Context, id string) (*SessionResult, error) {
	return s.withSession(ctx, id, func(sess *tutor.Session) (*SessionResult, error) {
		if err := tutor.ShowScreen(sess, tutor.ScreenAITutor); err != nil {
			return nil, err
		}
		res := &SessionResult{}
		if sess.SelectedSubject != "" {
			out, err := s.lesson(ctx, sess, sess.SelectedSubject)
			if err != nil {
				return nil, err
			}
			res.Outcome = out
		}
		return res, nil
	})
}

func (s *TutorService) OpenRealTutor(ctx context.Context, id string) (*SessionResult, error) {
	return s.withSession(ctx, id, func(sess *tutor.Session) (*SessionResult, error) {
		if err := tutor.ShowScreen(sess, tutor.ScreenRealTutor); err != nil {
			return nil, err
		}
		return &SessionResult{}, nil
	})
}

func (s *TutorService) Back(ctx context.Context, id string) (*SessionResult, error) {
	return s.withSession(ctx, id, func(sess *tutor.Session) (*SessionResult, error) {
		tutor.Back(sess)
		return &SessionResult{}, nil
	})
}

func (s *TutorService) History(ctx context.Context, id string) (*History, error) {
	if _, err := s.sessions.Get(ctx, id); err != nil {
		return nil, err
	}
	records, err := s.interactions.ListBySession(id, s.cfg.HistorySize)
	if err != nil {
		return nil, err
	}
	stats, err := s.interactions.StatsBySession(id)
	if err != nil {
		return nil, err
	}
	return &History{Interactions: records, Stats: stats}, nil
}

func (s *TutorService) lesson(ctx context.Context, sess *tutor.Session, subjectID string) (*tutor.Outcome, error) {
	start := time.Now()
	out, err := s.core.RequestLesson(ctx, sess, subjectID)
	if err != nil {
		return nil, err
	}
	s.record(sess, out, "", time.Since(start))
	return &out, nil
}

func resolveSubject(sess *tutor.Session, subjectID string) (string, error) {
	if subjectID != "" {
		return subjectID, nil
	}
	if sess.SelectedSubject == "" {
		return "", tutor.ErrNoSubjectSelected
	}
	return sess.SelectedSubject, nil
}

// record 记录日志、指标与调用历史；历史写入失败不影响本次请求
func (s *TutorService) record(sess *tutor.Session, out tutor.Outcome, question string, elapsed time.Duration) {
	monitoring.ObserveTutorRequest(string(out.Op), out.Subject, out.Failed(), elapsed, out.Progress)

	fields := []zap.Field{
		zap.String("session_id", sess.ID),
		zap.String("operation", string(out.Op)),
		zap.String("subject", out.Subject),
		zap.Int("progress_before", out.Before),
		zap.Int("progress", out.Progress),
		zap.Duration("elapsed", elapsed),
	}

	record := &model.TutorInteraction{
		SessionID:      sess.ID,
		SubjectID:      out.Subject,
		Operation:      string(out.Op),
		Question:       question,
		Topic:          out.Topic,
		Success:        !out.Failed(),
		ProgressBefore: out.Before,
		ProgressAfter:  out.Progress,
		DurationMs:     elapsed.Milliseconds(),
		CreatedAt:      s.now(),
	}
	if out.Failed() {
		record.ErrorMessage = out.Err.Message
		logger.Log.Warn("tutoring API request failed", append(fields, zap.Error(out.Err))...)
	} else {
		logger.Log.Info("tutoring API request completed", fields...)
	}

	if err := s.interactions.Create(record); err != nil {
		logger.Log.Error("failed to record tutor interaction", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

// IsClientError 判断是否为调用方参数错误（返回 400）
func IsClientError(err error) bool {
	return errors.Is(err, tutor.ErrUnknownSubject) ||
		errors.Is(err, tutor.ErrNoSubjectSelected) ||
		errors.Is(err, tutor.ErrUnknownSection) ||
		errors.Is(err, tutor.ErrUnknownScreen)
}
