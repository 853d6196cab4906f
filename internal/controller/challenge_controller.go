package controller

import (
	"pythonchick_backend/internal/middleware"
	"pythonchick_backend/internal/model"
	"pythonchick_backend/internal/service"
	"pythonchick_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ChallengeController struct {
	ChallengeService *service.ChallengeService
}

func NewChallengeController(challengeService *service.ChallengeService) *ChallengeController {
	return &ChallengeController{ChallengeService: challengeService}
}

// ListChallenges godoc
// @Summary 编程挑战列表
// @Description 不返回参考答案与期望输出
// @Tags 挑战
// @Produce json
// @Security ApiKeyAuth
// @Param difficulty query string false "beginner | intermediate | advanced"
// @Success 200 {object} util.Response{data=[]service.ChallengeView}
// @Router /api/games/challenges [get]
func (c *ChallengeController) ListChallenges(ctx *gin.Context) {
	difficulty := ctx.Query("difficulty")
	switch model.Difficulty(difficulty) {
	case "", model.DifficultyBeginner, model.DifficultyIntermediate, model.DifficultyAdvanced:
	default:
		util.BadRequest(ctx, "unknown difficulty")
		return
	}

	list, err := c.ChallengeService.List(middleware.CurrentUserID(ctx), difficulty)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// swagger:model SubmitChallengeRequest
type SubmitChallengeRequest struct {
	ChallengeID uint   `json:"challenge_id" binding:"required"`
	Code        string `json:"code" binding:"required"`
}

// Submit godoc
// @Summary 提交挑战答案
// @Description 运行代码并与期望输出比较，正确时发放积分
// @Tags 挑战
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body SubmitChallengeRequest true "答案"
// @Success 200 {object} util.Response{data=service.EvaluationResult}
// @Failure 404 {object} util.Response "挑战不存在"
// @Router /api/games/challenges/submit [post]
func (c *ChallengeController) Submit(ctx *gin.Context) {
	var req SubmitChallengeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.ChallengeService.Evaluate(ctx.Request.Context(), middleware.CurrentUserID(ctx), req.ChallengeID, req.Code)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
