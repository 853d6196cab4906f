package controller

import (
	"strconv"

	"pythonchick_backend/internal/middleware"
	"pythonchick_backend/internal/service"
	"pythonchick_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// GetUser godoc
// @Summary 用户资料
// @Tags 用户
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "用户ID"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 404 {object} util.Response
// @Router /api/users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	user, err := c.UserService.GetUser(id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// swagger:model UpdateProfileRequest
type UpdateProfileRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,max=100"`
	Email    *string `json:"email" binding:"omitempty,email"`
}

// UpdateMe godoc
// @Summary 修改个人资料
// @Tags 用户
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body UpdateProfileRequest true "资料"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 409 {object} util.Response "邮箱已被注册"
// @Router /api/users/me [put]
func (c *UserController) UpdateMe(ctx *gin.Context) {
	var req UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user, err := c.UserService.UpdateProfile(middleware.CurrentUserID(ctx), service.UpdateProfileInput{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// UploadAvatar godoc
// @Summary 上传头像
// @Tags 用户
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param file formData file true "头像图片"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response
// @Router /api/users/me/avatar [post]
func (c *UserController) UploadAvatar(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	if file.Size > util.MaxAvatarSize {
		util.BadRequest(ctx, "avatar must be smaller than 2MB")
		return
	}
	if !util.IsAllowedImageExt(file.Filename) {
		util.BadRequest(ctx, "unsupported image extension")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	mimeType, err := util.ValidateMimeType(src, []string{util.MimeImage})
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if _, err := src.Seek(0, 0); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	user, err := c.UserService.UploadAvatar(ctx.Request.Context(), middleware.CurrentUserID(ctx), file.Filename, src, file.Size, mimeType)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// Activities godoc
// @Summary 最近的奖励记录
// @Tags 用户
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "条数" default(20)
// @Success 200 {object} util.Response{data=[]model.UserActivity}
// @Router /api/users/me/activities [get]
func (c *UserController) Activities(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	list, err := c.UserService.RecentActivity(middleware.CurrentUserID(ctx), limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}
