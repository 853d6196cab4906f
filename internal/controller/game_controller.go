package controller

import (
	"pythonchick_backend/internal/middleware"
	"pythonchick_backend/internal/service"
	"pythonchick_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GameController struct {
	GameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{GameService: gameService}
}

// ListGames godoc
// @Summary 游戏列表
// @Description 依次解锁；登录后附带个人进度
// @Tags 游戏
// @Produce json
// @Success 200 {object} util.Response{data=[]service.GameView}
// @Router /api/game [get]
func (c *GameController) ListGames(ctx *gin.Context) {
	games, err := c.GameService.ListGames(middleware.CurrentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, games)
}

// GetGame godoc
// @Summary 游戏详情
// @Tags 游戏
// @Produce json
// @Param slug path string true "游戏 slug"
// @Success 200 {object} util.Response{data=service.GameView}
// @Failure 404 {object} util.Response
// @Router /api/game/{slug} [get]
func (c *GameController) GetGame(ctx *gin.Context) {
	game, err := c.GameService.GetBySlug(ctx.Param("slug"), middleware.CurrentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, game)
}

// UpdateProgress godoc
// @Summary 更新游戏进度
// @Description data 字段与已有数据合并；首次完成时发放经验
// @Tags 游戏
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "游戏ID"
// @Param body body service.GameProgressUpdate true "进度"
// @Success 200 {object} util.Response{data=service.GameProgressResult}
// @Failure 404 {object} util.Response
// @Router /api/game/{id}/progress [post]
func (c *GameController) UpdateProgress(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req service.GameProgressUpdate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.GameService.UpdateProgress(ctx.Request.Context(), middleware.CurrentUserID(ctx), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
