package controller

import (
	"errors"
	"time"

	"eyecare_backend/internal/service"
	"eyecare_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CheckinController struct {
	CheckinService *service.CheckinService
}

func NewCheckinController(checkinService *service.CheckinService) *CheckinController {
	return &CheckinController{CheckinService: checkinService}
}

// @Summary Daily check-in
// @Description Records today's check-in, extends the streak and awards XP
// @Tags achievements
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.CheckinResult}
// @Failure 409 {object} util.Response "Already checked in today"
// @Router /api/checkin [post]
func (c *CheckinController) Checkin(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.CheckinService.Checkin(user.UserID, time.Now())
	if err != nil {
		if errors.Is(err, util.ErrAlreadyCheckedIn) {
			util.Conflict(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary Check-in status
// @Tags achievements
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.CheckinStatus}
// @Router /api/checkin/status [get]
func (c *CheckinController) Status(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	status, err := c.CheckinService.Status(user.UserID, time.Now())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, status)
}
