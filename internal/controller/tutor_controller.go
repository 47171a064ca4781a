package controller

import (
	"errors"
	"net/http"
	"tutor_backend/internal/config"
	"tutor_backend/internal/service"
	"tutor_backend/internal/tutor"
	"tutor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TutorController struct {
	tutorService *service.TutorService
	config       *config.Config
}

func NewTutorController(tutorService *service.TutorService, cfg *config.Config) *TutorController {
	return &TutorController{tutorService: tutorService, config: cfg}
}

type SelectSubjectRequest struct {
	SubjectID string `json:"subjectId" binding:"required"`
}

type SubjectRequest struct {
	SubjectID string `json:"subjectId"`
}

type AskQuestionRequest struct {
	Question string `json:"question"`
}

// sessionView 会话状态 + 各区块可见性，供前端直接渲染
type sessionView struct {
	*tutor.Session
	Visibility map[tutor.Section]bool `json:"visibility"`
	NextTopic  string                 `json:"nextTopic,omitempty"`
}

type resultView struct {
	Session  sessionView    `json:"session"`
	Outcome  *tutor.Outcome `json:"outcome,omitempty"`
	Progress *int           `json:"progress,omitempty"`
	Skipped  bool           `json:"skipped,omitempty"`
}

func viewOf(s *tutor.Session) sessionView {
	v := sessionView{Session: s, Visibility: tutor.Visibility(s)}
	if sub, ok := s.Selected(); ok {
		v.NextTopic = tutor.NextTopic(sub)
	}
	return v
}

func (c *TutorController) handleError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrSessionBusy):
		util.Error(ctx, http.StatusConflict, err.Error())
	case service.IsClientError(err):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// respond 外部 API 调用失败时返回 502，并附带未改变的会话状态
func (c *TutorController) respond(ctx *gin.Context, res *service.SessionResult, err error) {
	if err != nil {
		c.handleError(ctx, err)
		return
	}

	view := resultView{
		Session:  viewOf(res.Session),
		Outcome:  res.Outcome,
		Progress: res.Progress,
		Skipped:  res.Skipped,
	}
	if res.Outcome != nil && res.Outcome.Failed() {
		util.ErrorWithData(ctx, http.StatusBadGateway, res.Outcome.Err.Message, view)
		return
	}
	util.Success(ctx, view)
}

// ListSubjects 课程目录
// @Summary 获取课程目录
// @Tags Tutor
// @Produce json
// @Success 200 {object} util.Response
// @Router /subjects [get]
func (c *TutorController) ListSubjects(ctx *gin.Context) {
	util.Success(ctx, c.tutorService.ListSubjects())
}

// CreateSession 创建新会话并签发会话令牌
// @Summary 创建学习会话
// @Tags Tutor
// @Produce json
// @Success 201 {object} util.Response
// @Router /sessions [post]
func (c *TutorController) CreateSession(ctx *gin.Context) {
	sess, err := c.tutorService.CreateSession(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	token, err := util.GenerateSessionToken(sess.ID, c.config.JWT.Secret, c.config.JWT.ExpireTime)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"session": viewOf(sess),
		"token":   token,
	})
}

// @Summary 获取当前会话
// @Tags Tutor
// @Security ApiKeyAuth
// @Router /session [get]
func (c *TutorController) GetSession(ctx *gin.Context) {
	sess, err := c.tutorService.GetSession(ctx.Request.Context(), util.GetSessionIDFromContext(ctx))
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, viewOf(sess))
}

// @Summary 选择课程
// @Tags Tutor
// @Security ApiKeyAuth
// @Param request body SelectSubjectRequest true "课程"
// @Router /session/subject [post]
func (c *TutorController) SelectSubject(ctx *gin.Context) {
	var req SelectSubjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	res, err := c.tutorService.SelectSubject(ctx.Request.Context(), util.GetSessionIDFromContext(ctx), req.SubjectID)
	c.respond(ctx, res, err)
}

// @Summary 生成开篇课程
// @Tags Tutor
// @Security ApiKeyAuth
// @Param request body SubjectRequest false "课程，缺省为当前选择"
// @Router /session/lesson [post]
func (c *TutorController) RequestLesson(ctx *gin.Context) {
	var req SubjectRequest
	if err := bindOptionalJSON(ctx, &req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	res, err := c.tutorService.RequestLesson(ctx.Request.Context(), util.GetSessionIDFromContext(ctx), req.SubjectID)
	c.respond(ctx, res, err)
}

// @Summary 向 AI 辅导提问
// @Tags Tutor
// @Security ApiKeyAuth
// @Param request body AskQuestionRequest true "问题"
// @Router /session/ask [post]
func (c *TutorController) AskQuestion(ctx *gin.Context) {
	var req AskQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	res, err := c.tutorService.AskQuestion(ctx.Request.Context(), util.GetSessionIDFromContext(ctx), req.Question)
	c.respond(ctx, res, err)
}

// @Summary 开始新主题
// @Tags Tutor
// @Security ApiKeyAuth
// @Param request body SubjectRequest false "课程，缺省为当前选择"
// @Router /session/topic [post]
func (c *TutorController) StartNewTopic(ctx *gin.Context) {
	var req SubjectRequest
	if err := bindOptionalJSON(ctx, &req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	res, err := c.tutorService.StartNewTopic(ctx.Request.Context(), util.GetSessionIDFromContext(ctx), req.SubjectID)
	c.respond(ctx, res, err)
}

// @Summary 切换页面区块
// @Tags Navigation
// @Security ApiKeyAuth
// @Param section path string true "welcome / aiTutor / realTutor / about / services / team"
// @Router /session/sections/{section} [post]
func (c *TutorController) ShowSection(ctx *gin.Context) {
	section, err := tutor.ParseSection(ctx.Param("section"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	res, err := c.tutorService.ShowSection(ctx.Request.Context(), util.GetSessionIDFromContext(ctx), section)
	c.respond(ctx, res, err)
}

// @Summary 进入 AI 辅导
// @Tags Navigation
// @Security ApiKeyAuth
// @Router /session/ai-tutor [post]
func (c *TutorController) OpenAITutor(ctx *gin.Context) {
	res, err := c.tutorService.OpenAITutor(ctx.Request.Context(), util.GetSessionIDFromContext(ctx))
	c.respond(ctx, res, err)
}

// @Summary 进入真人辅导
// @Tags Navigation
// @Security ApiKeyAuth
// @Router /session/real-tutor [post]
func (c *TutorController) OpenRealTutor(ctx *gin.Context) {
	res, err := c.tutorService.OpenRealTutor(ctx.Request.Context(), util.GetSessionIDFromContext(ctx))
	c.respond(ctx, res, err)
}

// @Summary 返回欢迎页
// @Tags Navigation
// @Security ApiKeyAuth
// @Router /session/back [post]
func (c *TutorController) Back(ctx *gin.Context) {
	res, err := c.tutorService.Back(ctx.Request.Context(), util.GetSessionIDFromContext(ctx))
	c.respond(ctx, res, err)
}

// @Summary 会话调用记录
// @Tags Tutor
// @Security ApiKeyAuth
// @Router /session/history [get]
func (c *TutorController) History(ctx *gin.Context) {
	history, err := c.tutorService.History(ctx.Request.Context(), util.GetSessionIDFromContext(ctx))
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, history)
}

// bindOptionalJSON 允许空请求体
func bindOptionalJSON(ctx *gin.Context, obj any) error {
	if ctx.Request.ContentLength == 0 {
		return nil
	}
	return ctx.ShouldBindJSON(obj)
}
