package controller

import (
	"errors"
	"net/http"

	"eyecare_backend/internal/service"
	"eyecare_backend/internal/util"
	"eyecare_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AssistantController struct {
	AssistantService *service.AssistantService
	Hub              *service.AssistantHub
}

func NewAssistantController(assistantService *service.AssistantService, hub *service.AssistantHub) *AssistantController {
	return &AssistantController{AssistantService: assistantService, Hub: hub}
}

// @Summary Eye-care chatbot
// @Description Answers one chat turn. Returns 503 while the model is disabled or unreachable.
// @Tags assistant
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.ChatRequest true "Message and prior turns"
// @Success 200 {object} util.Response{data=service.ChatReply}
// @Failure 503 {object} util.Response
// @Router /api/assistant/chat [post]
func (c *AssistantController) Chat(ctx *gin.Context) {
	var req service.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	reply, err := c.AssistantService.Chat(ctx.Request.Context(), req)
	if err != nil {
		if errors.Is(err, util.ErrAssistantUnavailable) {
			util.Error(ctx, http.StatusServiceUnavailable, "Assistant unavailable, please try again later")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, reply)
}

// @Summary Eye-care chatbot over a websocket
// @Description Upgrades to a websocket. Send {"type":"chat","data":ChatRequest}; replies arrive as "typing" then "reply" or "error" frames. Browsers pass the JWT as ?token=.
// @Tags assistant
// @Security ApiKeyAuth
// @Param token query string false "JWT when headers cannot be set"
// @Success 101 {string} string "Switching Protocols"
// @Failure 401 {object} util.Response
// @Router /api/assistant/ws [get]
func (c *AssistantController) ChatSocket(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	if err := c.Hub.ServeWS(ctx.Writer, ctx.Request, user.UserID); err != nil {
		logger.Log.Debug("assistant socket upgrade failed", zap.Error(err))
	}
}

// @Summary Symptom checker
// @Description Always answers the fixed disabled response
// @Tags assistant
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.SymptomsRequest true "Symptoms"
// @Success 200 {object} util.Response{data=service.SymptomsReply}
// @Router /api/assistant/symptoms [post]
func (c *AssistantController) Symptoms(ctx *gin.Context) {
	var req service.SymptomsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, c.AssistantService.CheckSymptoms(req))
}

// @Summary Ishihara plate set
// @Description Fixed mock plate images with their answers
// @Tags assistant
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.IshiharaPlate}
// @Router /api/assistant/ishihara [post]
func (c *AssistantController) Ishihara(ctx *gin.Context) {
	util.Success(ctx, c.AssistantService.IshiharaPlates())
}

// @Summary Personalised eye workout
// @Description Asks the model for a routine and falls back to a fixed one with a notice
// @Tags assistant
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.WorkoutRequest false "Preferences"
// @Success 200 {object} util.Response{data=service.WorkoutPlan}
// @Router /api/assistant/workout [post]
func (c *AssistantController) Workout(ctx *gin.Context) {
	var req service.WorkoutRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}
	util.Success(ctx, c.AssistantService.Workout(ctx.Request.Context(), req))
}
