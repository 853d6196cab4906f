package controller

import (
	"pythonchick_backend/internal/middleware"
	"pythonchick_backend/internal/service"
	"pythonchick_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressionService *service.ProgressionService
}

func NewProgressController(progressionService *service.ProgressionService) *ProgressController {
	return &ProgressController{ProgressionService: progressionService}
}

// CompleteLesson godoc
// @Summary 完成课时
// @Description 记录完成、发放经验与金币、更新连续天数，并按需解锁下一个主题或课程
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "课时ID"
// @Param score query int false "得分"
// @Success 200 {object} util.Response{data=service.LessonCompletionResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/progress/lessons/{id}/complete [post]
func (c *ProgressController) CompleteLesson(ctx *gin.Context) {
	lessonID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	score, err := util.ParseOptionalInt(ctx.Query("score"))
	if err != nil {
		util.BadRequest(ctx, "score must be an integer")
		return
	}

	res, err := c.ProgressionService.ApplyLessonCompletion(ctx.Request.Context(), middleware.CurrentUserID(ctx), lessonID, score)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
