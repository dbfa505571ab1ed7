package controller

import (
	"errors"

	"eyecare_backend/internal/service"
	"eyecare_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ReminderController struct {
	ReminderService *service.ReminderService
}

func NewReminderController(reminderService *service.ReminderService) *ReminderController {
	return &ReminderController{ReminderService: reminderService}
}

// @Summary List reminders
// @Tags reminders
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Reminder}
// @Router /api/reminders [get]
func (c *ReminderController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	reminders, err := c.ReminderService.List(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, reminders)
}

// @Summary Create a reminder
// @Tags reminders
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.ReminderRequest true "Reminder"
// @Success 201 {object} util.Response{data=model.Reminder}
// @Failure 400 {object} util.Response
// @Router /api/reminders [post]
func (c *ReminderController) Create(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.ReminderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	reminder, err := c.ReminderService.Create(user.UserID, req)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, reminder)
}

// @Summary Update a reminder
// @Tags reminders
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Reminder ID"
// @Param body body service.ReminderRequest true "Reminder"
// @Success 200 {object} util.Response{data=model.Reminder}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/reminders/{id} [put]
func (c *ReminderController) Update(ctx *gin.Context) {
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

	var req service.ReminderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	reminder, err := c.ReminderService.Update(user.UserID, id, req)
	if errors.Is(err, util.ErrReminderNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, reminder)
}

// @Summary Delete a reminder
// @Tags reminders
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Reminder ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/reminders/{id} [delete]
func (c *ReminderController) Delete(ctx *gin.Context) {
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

	if err := c.ReminderService.Delete(user.UserID, id); err != nil {
		if errors.Is(err, util.ErrReminderNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
