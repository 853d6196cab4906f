package controller

import (
	"pythonchick_backend/internal/middleware"
	"pythonchick_backend/internal/service"
	"pythonchick_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ContentController 课程目录，匿名可读，登录后附带完成情况
type ContentController struct {
	ContentService *service.ContentService
}

func NewContentController(contentService *service.ContentService) *ContentController {
	return &ContentController{ContentService: contentService}
}

// ListCourses godoc
// @Summary 课程列表
// @Tags 课程
// @Produce json
// @Success 200 {object} util.Response{data=[]service.CourseSummary}
// @Router /api/courses [get]
func (c *ContentController) ListCourses(ctx *gin.Context) {
	courses, err := c.ContentService.ListCourses(middleware.CurrentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// GetCourse godoc
// @Summary 课程详情
// @Tags 课程
// @Produce json
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseDetail}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id} [get]
func (c *ContentController) GetCourse(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	course, err := c.ContentService.GetCourse(id, middleware.CurrentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// GetTopic godoc
// @Summary 主题详情
// @Tags 课程
// @Produce json
// @Param id path int true "主题ID"
// @Success 200 {object} util.Response{data=service.TopicDetail}
// @Failure 404 {object} util.Response
// @Router /api/topics/{id} [get]
func (c *ContentController) GetTopic(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	topic, err := c.ContentService.GetTopic(id, middleware.CurrentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, topic)
}

// GetLesson godoc
// @Summary 课时详情
// @Tags 课程
// @Produce json
// @Param id path int true "课时ID"
// @Success 200 {object} util.Response{data=service.LessonSummary}
// @Failure 404 {object} util.Response
// @Router /api/lessons/{id} [get]
func (c *ContentController) GetLesson(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	lesson, err := c.ContentService.GetLesson(id, middleware.CurrentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}
