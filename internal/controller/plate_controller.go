package controller

import (
	"errors"

	"eyecare_backend/internal/service"
	"eyecare_backend/internal/util"
	"eyecare_backend/pkg/plate"

	"github.com/gin-gonic/gin"
)

type PlateController struct {
	PlateService *service.PlateService
}

func NewPlateController(plateService *service.PlateService) *PlateController {
	return &PlateController{PlateService: plateService}
}

// @Summary Generate a colour plate
// @Description Renders a dot-scatter plate hiding a digit and stores the SVG
// @Tags plates
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.PlateRequest false "Digit and seed, both optional"
// @Success 201 {object} util.Response{data=model.Plate}
// @Failure 400 {object} util.Response
// @Router /api/plates [post]
func (c *PlateController) Generate(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.PlateRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	p, err := c.PlateService.Generate(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		if errors.Is(err, plate.ErrInvalidDigit) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, p)
}

// @Summary List generated plates
// @Tags plates
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Plate}
// @Router /api/plates [get]
func (c *PlateController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	plates, err := c.PlateService.List(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, plates)
}
