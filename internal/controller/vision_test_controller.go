package controller

import (
	"errors"
	"net/http"
	"time"

	"eyecare_backend/internal/model"
	"eyecare_backend/internal/service"
	"eyecare_backend/internal/util"
	"eyecare_backend/pkg/staircase"
	"eyecare_backend/pkg/visiontest"

	"github.com/gin-gonic/gin"
)

type VisionTestController struct {
	VisionTestService *service.VisionTestService
}

func NewVisionTestController(visionTestService *service.VisionTestService) *VisionTestController {
	return &VisionTestController{VisionTestService: visionTestService}
}

// RoundView is the open round as the client may see it: the expected answer
// and which options are distractors stay on the server.
type RoundView struct {
	Number       int                    `json:"number"`
	LevelRank    int                    `json:"levelRank"`
	LevelLabel   string                 `json:"levelLabel"`
	Options      []string               `json:"options"`
	Presentation staircase.Presentation `json:"presentation"`
}

// SessionView is the client representation of a live session.
type SessionView struct {
	ID          string              `json:"id"`
	Kind        string              `json:"kind"`
	Eye         model.Eye           `json:"eye"`
	Phase       staircase.Phase     `json:"phase"`
	Run         int                 `json:"run"`
	CurrentRank int                 `json:"currentRank"`
	Round       *RoundView          `json:"round,omitempty"`
	History     []staircase.Attempt `json:"history"`
	Result      *staircase.Result   `json:"result,omitempty"`
	StartedAt   *time.Time          `json:"startedAt,omitempty"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// History only holds answered rounds, so its expected values are safe to show.
func newSessionView(s *model.VisionSession) *SessionView {
	v := &SessionView{
		ID:          s.ID,
		Kind:        s.Kind,
		Eye:         s.Eye,
		Phase:       s.State.Phase,
		Run:         s.State.Run,
		CurrentRank: s.State.CurrentRank,
		History:     s.State.History,
		Result:      s.State.Result,
		StartedAt:   s.StartedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if v.History == nil {
		v.History = []staircase.Attempt{}
	}
	if stim := s.State.Stimulus; stim != nil {
		v.Round = &RoundView{
			Number:       len(s.State.History) + 1,
			LevelRank:    stim.LevelRank,
			Options:      stim.Options,
			Presentation: stim.Presentation,
		}
		if def, err := visiontest.Lookup(visiontest.Kind(s.Kind)); err == nil {
			if level, err := def.Machine().Ladder().LevelAt(stim.LevelRank); err == nil {
				v.Round.LevelLabel = level.Label
			}
		}
	}
	return v
}

type AnswerResponse struct {
	Session *SessionView      `json:"session"`
	Correct bool              `json:"correct"`
	Result  *model.TestResult `json:"result,omitempty"`
	Reward  *service.Reward   `json:"reward,omitempty"`
}

// swagger:model AnswerRequest
type AnswerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// handleError maps session errors to responses. session, when given, is
// returned with the error so the client can re-prompt.
func (c *VisionTestController) handleError(ctx *gin.Context, err error, session *model.VisionSession) {
	var invalid *staircase.InvalidAnswerError
	switch {
	case errors.As(err, &invalid):
		var data interface{} = gin.H{"options": invalid.Options}
		if session != nil {
			data = gin.H{"options": invalid.Options, "session": newSessionView(session)}
		}
		util.ErrorWithData(ctx, http.StatusUnprocessableEntity, "Answer is not one of the offered options", data)
	case errors.Is(err, staircase.ErrInvalidTransition):
		if session != nil {
			util.ErrorWithData(ctx, http.StatusConflict, err.Error(), newSessionView(session))
			return
		}
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrSessionNotFound), errors.Is(err, util.ErrResultNotFound):
		util.NotFound(ctx)
	case errors.Is(err, visiontest.ErrUnknownTest), errors.Is(err, util.ErrInvalidEye):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// @Summary Vision test catalog
// @Description Lists the available staircase tests with their levels
// @Tags vision-tests
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]visiontest.Definition}
// @Router /api/vision-tests [get]
func (c *VisionTestController) Catalog(ctx *gin.Context) {
	util.Success(ctx, c.VisionTestService.Catalog())
}

// @Summary Create a test session
// @Description Creates a session on the instructions screen. A seed replays a known stimulus sequence.
// @Tags vision-tests
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CreateSessionRequest true "Test kind, eye and optional seed"
// @Success 201 {object} util.Response{data=SessionView}
// @Failure 400 {object} util.Response
// @Router /api/vision-tests/sessions [post]
func (c *VisionTestController) CreateSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.VisionTestService.CreateSession(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		c.handleError(ctx, err, nil)
		return
	}
	util.Created(ctx, newSessionView(session))
}

// @Summary Get a test session
// @Tags vision-tests
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} util.Response{data=SessionView}
// @Failure 404 {object} util.Response
// @Router /api/vision-tests/sessions/{id} [get]
func (c *VisionTestController) GetSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.VisionTestService.GetSession(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		c.handleError(ctx, err, nil)
		return
	}
	util.Success(ctx, newSessionView(session))
}

// @Summary Start a test session
// @Description Leaves the instructions screen and opens the first round
// @Tags vision-tests
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} util.Response{data=SessionView}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "Session is not on the instructions screen"
// @Router /api/vision-tests/sessions/{id}/start [post]
func (c *VisionTestController) Start(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.VisionTestService.Start(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		c.handleError(ctx, err, session)
		return
	}
	util.Success(ctx, newSessionView(session))
}

// @Summary Answer the open round
// @Description Scores the answer. A correct answer climbs one level; a wrong one, or passing the last level, finishes the test and stores the result.
// @Tags vision-tests
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Param body body AnswerRequest true "Chosen option"
// @Success 200 {object} util.Response{data=AnswerResponse}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "Session is not running"
// @Failure 422 {object} util.Response "Answer is not one of the options; session unchanged"
// @Router /api/vision-tests/sessions/{id}/answer [post]
func (c *VisionTestController) Answer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	outcome, err := c.VisionTestService.Answer(ctx.Request.Context(), user.UserID, ctx.Param("id"), req.Answer)
	if err != nil {
		var session *model.VisionSession
		if outcome != nil {
			session = outcome.Session
		}
		c.handleError(ctx, err, session)
		return
	}

	util.Success(ctx, AnswerResponse{
		Session: newSessionView(outcome.Session),
		Correct: outcome.Correct,
		Result:  outcome.Result,
		Reward:  outcome.Reward,
	})
}

// @Summary Restart a finished session
// @Description Returns to the instructions screen; the next start begins a new run
// @Tags vision-tests
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} util.Response{data=SessionView}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "Session is not finished"
// @Router /api/vision-tests/sessions/{id}/restart [post]
func (c *VisionTestController) Restart(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.VisionTestService.Restart(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		c.handleError(ctx, err, session)
		return
	}
	util.Success(ctx, newSessionView(session))
}

// @Summary Abandon a session
// @Description Discards the live session. Stored results are kept.
// @Tags vision-tests
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/vision-tests/sessions/{id} [delete]
func (c *VisionTestController) Abandon(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.VisionTestService.Abandon(ctx.Request.Context(), user.UserID, ctx.Param("id")); err != nil {
		c.handleError(ctx, err, nil)
		return
	}
	util.Success(ctx, nil)
}

// @Summary List test results
// @Tags vision-tests
// @Produce json
// @Security ApiKeyAuth
// @Param kind query string false "Filter by test kind"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/vision-tests/results [get]
func (c *VisionTestController) ListResults(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page, limit := util.Paging(ctx.Query("page"), ctx.Query("limit"))
	results, total, err := c.VisionTestService.ListResults(user.UserID, ctx.Query("kind"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: results, Total: total, Page: page, Limit: limit})
}

// @Summary Get a test result
// @Tags vision-tests
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Result ID"
// @Success 200 {object} util.Response{data=model.TestResult}
// @Failure 404 {object} util.Response
// @Router /api/vision-tests/results/{id} [get]
func (c *VisionTestController) GetResult(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.VisionTestService.GetResult(user.UserID, id)
	if err != nil {
		c.handleError(ctx, err, nil)
		return
	}
	util.Success(ctx, result)
}
