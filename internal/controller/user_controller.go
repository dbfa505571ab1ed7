package controller

import (
	"errors"
	"time"

	"eyecare_backend/internal/model"
	"eyecare_backend/internal/service"
	"eyecare_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// UserController serves admin user management.
type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=member admin"`
}

type DisableUserRequest struct {
	Disable bool `json:"disable"`
}

// GetUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Param role query string false "member or admin"
// @Param status query string false "active, disabled or online"
// @Param search query string false "Name or email fragment"
// @Param startDate query string false "RFC3339 lower bound on registration"
// @Param endDate query string false "RFC3339 upper bound on registration"
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.User}}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/admin/users [get]
func (c *UserController) GetUsers(ctx *gin.Context) {
	page, limit := util.Paging(ctx.Query("page"), ctx.Query("limit"))
	filter := service.UserFilter{
		Role:   ctx.Query("role"),
		Status: ctx.Query("status"),
		Search: ctx.Query("search"),
	}

	var err error
	if s := ctx.Query("startDate"); s != "" {
		if filter.StartDate, err = time.Parse(time.RFC3339, s); err != nil {
			util.BadRequest(ctx, "invalid startDate")
			return
		}
	}
	if s := ctx.Query("endDate"); s != "" {
		if filter.EndDate, err = time.Parse(time.RFC3339, s); err != nil {
			util.BadRequest(ctx, "invalid endDate")
			return
		}
	}

	users, total, err := c.UserService.GetUsers(page, limit, filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: users, Total: total, Page: page, Limit: limit})
}

// GetUser godoc
// @Summary Get a user
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, ok := c.userID(ctx)
	if !ok {
		return
	}
	user, err := c.UserService.GetUserByID(id)
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// UpdateRole godoc
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Param body body UpdateRoleRequest true "New role"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{id}/role [put]
func (c *UserController) UpdateRole(ctx *gin.Context) {
	id, ok := c.otherUserID(ctx)
	if !ok {
		return
	}
	var req UpdateRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user, err := c.UserService.SetRole(id, model.UserRole(req.Role))
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// ResetPassword godoc
// @Summary Reset a user's password
// @Description Replaces the password with a temporary one, returned once.
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{id}/reset-password [post]
func (c *UserController) ResetPassword(ctx *gin.Context) {
	id, ok := c.userID(ctx)
	if !ok {
		return
	}
	temp, err := c.UserService.ResetPassword(id)
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"tempPassword": temp})
}

// DisableUser godoc
// @Summary Disable or enable a user
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Param body body DisableUserRequest true "Disable flag"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{id}/disable [post]
func (c *UserController) DisableUser(ctx *gin.Context) {
	id, ok := c.otherUserID(ctx)
	if !ok {
		return
	}
	var req DisableUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.UserService.DisableUser(id, req.Disable); err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id, "disabled": req.Disable})
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	id, ok := c.otherUserID(ctx)
	if !ok {
		return
	}
	if err := c.UserService.DeleteUser(id); err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

func (c *UserController) userID(ctx *gin.Context) (uint, bool) {
	id, err := util.ParseID(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return 0, false
	}
	return id, true
}

// otherUserID rejects admins acting on their own account.
func (c *UserController) otherUserID(ctx *gin.Context) (uint, bool) {
	id, ok := c.userID(ctx)
	if !ok {
		return 0, false
	}
	if claims := util.GetUserFromContext(ctx); claims != nil && claims.UserID == id {
		util.BadRequest(ctx, "cannot modify your own account")
		return 0, false
	}
	return id, true
}

func (c *UserController) handleError(ctx *gin.Context, err error) {
	if errors.Is(err, util.ErrUserNotFound) {
		util.NotFound(ctx)
		return
	}
	util.LogInternalError(ctx, err)
}
