package service

import (
	"context"
	"encoding/json"
	"errors"

	"pythonchick_backend/internal/model"
	"pythonchick_backend/internal/repository"
	"pythonchick_backend/internal/util"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GameService struct {
	DB          *gorm.DB
	GameRepo    *repository.GameRepository
	Progression *ProgressionService
}

func NewGameService(db *gorm.DB, gameRepo *repository.GameRepository, progression *ProgressionService) *GameService {
	return &GameService{DB: db, GameRepo: gameRepo, Progression: progression}
}

type GameView struct {
	model.Game
	Unlocked bool                    `json:"unlocked"`
	Progress *model.UserGameProgress `json:"progress,omitempty"`
}

// GameProgressUpdate nil 字段表示不修改
type GameProgressUpdate struct {
	IsStarted    *bool                  `json:"is_started"`
	IsCompleted  *bool                  `json:"is_completed"`
	CurrentLevel *int                   `json:"current_level"`
	Score        *int                   `json:"score"`
	Data         map[string]interface{} `json:"data"`
}

type GameProgressResult struct {
	Progress *model.UserGameProgress `json:"progress"`
	XPEarned int                     `json:"xp_earned"`
}

// ListGames 第一个游戏总是解锁，之后每个游戏在前一个完成后解锁；匿名用户只能看到第一个解锁
func (s *GameService) ListGames(userID uint) ([]GameView, error) {
	games, err := s.GameRepo.ListActive()
	if err != nil {
		return nil, err
	}

	progress := map[uint]model.UserGameProgress{}
	if userID != 0 {
		if progress, err = s.GameRepo.ProgressByUser(userID); err != nil {
			return nil, err
		}
	}

	views := make([]GameView, len(games))
	prevCompleted := true
	for i, g := range games {
		views[i] = GameView{Game: g, Unlocked: prevCompleted}
		p, ok := progress[g.ID]
		if ok {
			p := p
			views[i].Progress = &p
		}
		prevCompleted = ok && p.IsCompleted
	}
	return views, nil
}

func (s *GameService) GetBySlug(slug string, userID uint) (*GameView, error) {
	views, err := s.ListGames(userID)
	if err != nil {
		return nil, err
	}
	for i := range views {
		if views[i].Slug == slug {
			return &views[i], nil
		}
	}
	return nil, util.ErrGameNotFound
}

// UpdateProgress data 与已有数据浅合并。首次标记完成时发放游戏经验
func (s *GameService) UpdateProgress(ctx context.Context, userID, gameID uint, req GameProgressUpdate) (*GameProgressResult, error) {
	var result *GameProgressResult
	err := retryOnConflict("game_progress", func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			r, err := s.updateProgress(tx, userID, gameID, req)
			result = r
			return err
		})
	})
	return result, err
}

func (s *GameService) updateProgress(tx *gorm.DB, userID, gameID uint, req GameProgressUpdate) (*GameProgressResult, error) {
	repo := s.GameRepo.WithTx(tx)
	now := s.Progression.Now()

	game, err := repo.FindByID(gameID)
	if err != nil {
		return nil, notFound(err, util.ErrGameNotFound)
	}
	if _, err := s.Progression.UserRepo.WithTx(tx).FindByIDForUpdate(userID); err != nil {
		return nil, notFound(err, util.ErrUserNotFound)
	}

	p, err := repo.FindProgressForUpdate(userID, gameID)
	isNew := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !isNew {
		return nil, err
	}
	if isNew {
		p = &model.UserGameProgress{UserID: userID, GameID: gameID, IsStarted: true}
	}
	wasCompleted := p.IsCompleted

	if req.IsStarted != nil {
		p.IsStarted = *req.IsStarted
	}
	if req.IsCompleted != nil && *req.IsCompleted && !p.IsCompleted {
		p.IsCompleted = true
		p.CompletedAt = &now
	}
	if req.CurrentLevel != nil {
		p.CurrentLevel = *req.CurrentLevel
	}
	if req.Score != nil {
		p.Score = *req.Score
	}
	if req.Data != nil {
		if p.Data == nil {
			p.Data = datatypes.JSONMap{}
		}
		for k, v := range req.Data {
			p.Data[k] = v
		}
	}
	p.LastPlayedAt = &now

	if isNew {
		err = repo.CreateProgress(p)
	} else {
		err = repo.SaveProgress(p)
	}
	if err != nil {
		return nil, err
	}

	result := &GameProgressResult{Progress: p}
	if p.IsCompleted && !wasCompleted && game.XPReward > 0 {
		data, _ := json.Marshal(map[string]interface{}{"game_id": gameID, "slug": game.Slug})
		if _, err := s.Progression.ApplyRewardTx(tx, userID, game.XPReward, 0, model.ActivityGameCompleted, string(data)); err != nil {
			return nil, err
		}
		result.XPEarned = game.XPReward
	}
	return result, nil
}
