package controller

import (
	"strconv"

	"eyecare_backend/internal/service"
	"eyecare_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AchievementController struct {
	AchievementService *service.AchievementService
}

func NewAchievementController(achievementService *service.AchievementService) *AchievementController {
	return &AchievementController{AchievementService: achievementService}
}

// @Summary User achievements
// @Description XP, level, badges and the top of the leaderboard
// @Tags achievements
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.UserAchievements}
// @Router /api/achievements [get]
func (c *AchievementController) GetUserAchievements(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	achievements, err := c.AchievementService.GetUserAchievements(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, achievements)
}

// @Summary Leaderboard
// @Description Users ranked by XP
// @Tags achievements
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "Number of entries" default(10)
// @Success 200 {object} util.Response{data=[]service.LeaderboardEntry}
// @Router /api/achievements/leaderboard [get]
func (c *AchievementController) GetLeaderboard(ctx *gin.Context) {
	limit := 10
	if limitStr := ctx.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	leaderboard, err := c.AchievementService.GetLeaderboard(limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, leaderboard)
}
