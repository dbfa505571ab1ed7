package controller

import (
	"errors"
	"net/http"
	"time"

	"eyecare_backend/internal/model"
	"eyecare_backend/internal/service"
	"eyecare_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService    *service.AuthService
	CheckinService *service.CheckinService
}

func NewAuthController(authService *service.AuthService, checkinService *service.CheckinService) *AuthController {
	return &AuthController{
		AuthService:    authService,
		CheckinService: checkinService,
	}
}

// RegisterRequest defines model for registration
// swagger:model RegisterRequest
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register godoc
// @Summary Register a new user
// @Description Creates a member account
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   body body RegisterRequest true "Registration"
// @Success 201 {object} util.Response{data=object} "Created"
// @Failure 400 {object} util.Response "Invalid request"
// @Failure 409 {object} util.Response "Email already registered"
// @Failure 500 {object} util.Response "Internal server error"
// @Router /api/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}

	if err := c.AuthService.Register(user); err != nil {
		if errors.Is(err, util.ErrEmailRegistered) {
			util.Conflict(ctx, "Email already registered")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"id": user.ID})
}

// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary Log in
// @Description Verifies the credentials and returns a JWT
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "Credentials"
// @Success 200 {object} util.Response{data=object} "Success"
// @Failure 400 {object} util.Response "Invalid request"
// @Failure 401 {object} util.Response "Unauthorized"
// @Failure 403 {object} util.Response "Account disabled"
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, user, err := c.AuthService.Login(req.Email, req.Password)
	switch {
	case errors.Is(err, util.ErrUserDisabled):
		util.Error(ctx, http.StatusForbidden, "Account disabled")
		return
	case errors.Is(err, util.ErrInvalidCredentials):
		util.Unauthorized(ctx)
		return
	case err != nil:
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"token": token, "user": user})
}

// GetProfile godoc
// @Summary Current user profile
// @Description Returns the authenticated user with today's check-in status
// @Tags auth
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "Success"
// @Failure 401 {object} util.Response "Unauthorized"
// @Router /api/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	isCheckedInToday, err := c.CheckinService.IsCheckedInToday(user.ID, time.Now())
	if err != nil {
		isCheckedInToday = false
	}

	util.Success(ctx, gin.H{
		"id":               user.ID,
		"name":             user.Name,
		"email":            user.Email,
		"avatar":           user.Avatar,
		"role":             user.Role,
		"xp":               user.XP,
		"createdAt":        user.CreatedAt,
		"isCheckedInToday": isCheckedInToday,
	})
}
