package repository

import (
	"pythonchick_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GameRepository struct {
	DB *gorm.DB
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{DB: db}
}

func (r *GameRepository) WithTx(tx *gorm.DB) *GameRepository {
	return &GameRepository{DB: tx}
}

func (r *GameRepository) ListActive() ([]model.Game, error) {
	var games []model.Game
	err := r.DB.Where("is_active = ?", true).Order("order_index ASC, id ASC").Find(&games).Error
	return games, err
}

func (r *GameRepository) FindByID(id uint) (*model.Game, error) {
	var g model.Game
	err := r.DB.First(&g, id).Error
	return &g, err
}

func (r *GameRepository) FindProgressForUpdate(userID, gameID uint) (*model.UserGameProgress, error) {
	var p model.UserGameProgress
	err := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		First(&p).Error
	return &p, err
}

// ProgressByUser game_id -> 进度
func (r *GameRepository) ProgressByUser(userID uint) (map[uint]model.UserGameProgress, error) {
	var list []model.UserGameProgress
	err := r.DB.Where("user_id = ?", userID).Find(&list).Error
	out := make(map[uint]model.UserGameProgress, len(list))
	for _, p := range list {
		out[p.GameID] = p
	}
	return out, err
}

func (r *GameRepository) CreateProgress(p *model.UserGameProgress) error {
	return r.DB.Create(p).Error
}

func (r *GameRepository) SaveProgress(p *model.UserGameProgress) error {
	return r.DB.Save(p).Error
}
