package controller

import (
	"time"

	"pythonchick_backend/internal/service"
	"pythonchick_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// maxRequestTimeout 调用方可以缩短但不能无限延长执行时间
const maxRequestTimeout = 30

type CodeController struct {
	ExecutionService *service.ExecutionService
}

func NewCodeController(executionService *service.ExecutionService) *CodeController {
	return &CodeController{ExecutionService: executionService}
}

// swagger:model ExecuteCodeRequest
type ExecuteCodeRequest struct {
	Code           string  `json:"code" binding:"required"`
	ExpectedOutput *string `json:"expected_output"`
	// 秒，0 表示使用默认值
	Timeout int `json:"timeout" binding:"min=0"`
}

// Execute godoc
// @Summary 运行代码
// @Description 在沙箱中运行 Python 代码；提供 expected_output 时返回是否匹配
// @Tags 代码
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body ExecuteCodeRequest true "源码"
// @Success 200 {object} util.Response{data=sandbox.ExecutionResult}
// @Failure 400 {object} util.Response
// @Router /api/code/execute [post]
func (c *CodeController) Execute(ctx *gin.Context) {
	var req ExecuteCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Timeout > maxRequestTimeout {
		req.Timeout = maxRequestTimeout
	}

	res := c.ExecutionService.ExecuteWithTimeout(ctx.Request.Context(), req.Code, req.ExpectedOutput, time.Duration(req.Timeout)*time.Second)
	util.Success(ctx, res)
}
