package controller

import (
	"time"

	"eyecare_backend/internal/service"
	"eyecare_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TipController struct {
	TipService *service.TipService
}

func NewTipController(tipService *service.TipService) *TipController {
	return &TipController{TipService: tipService}
}

// @Summary Tip of the day
// @Tags tips
// @Produce json
// @Success 200 {object} util.Response{data=model.EyeTip}
// @Failure 404 {object} util.Response
// @Router /api/tips/today [get]
func (c *TipController) Today(ctx *gin.Context) {
	tip, err := c.TipService.Today(time.Now())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if tip == nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, tip)
}

// @Summary List tips
// @Tags tips
// @Produce json
// @Param category query string false "Category"
// @Success 200 {object} util.Response{data=[]model.EyeTip}
// @Router /api/tips [get]
func (c *TipController) List(ctx *gin.Context) {
	tips, err := c.TipService.List(ctx.Query("category"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, tips)
}
