package controller

import (
	"errors"
	"net/http"

	"pythonchick_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError 已知业务错误映射为对应状态码，其余记录日志并返回 500
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrCourseNotFound),
		errors.Is(err, util.ErrTopicNotFound),
		errors.Is(err, util.ErrLessonNotFound),
		errors.Is(err, util.ErrChallengeNotFound),
		errors.Is(err, util.ErrGameNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrEmailRegistered), errors.Is(err, util.ErrUsernameTaken):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidCredential):
		util.Error(ctx, http.StatusUnauthorized, err.Error())
	case errors.Is(err, util.ErrUserInactive), errors.Is(err, util.ErrPermissionDenied):
		util.Error(ctx, http.StatusForbidden, err.Error())
	case errors.Is(err, util.ErrInvalidResetToken):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// pathID 解析路径中的正整数 ID，失败时已写入 400
func pathID(ctx *gin.Context, name string) (uint, bool) {
	id := util.MustParseUint(ctx.Param(name))
	if id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return id, true
}
