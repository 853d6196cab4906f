package repository

import (
	"pythonchick_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChallengeRepository struct {
	DB *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{DB: db}
}

func (r *ChallengeRepository) WithTx(tx *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{DB: tx}
}

func (r *ChallengeRepository) FindByID(id uint) (*model.Challenge, error) {
	var c model.Challenge
	err := r.DB.First(&c, id).Error
	return &c, err
}

// List difficulty 为空时返回全部
func (r *ChallengeRepository) List(difficulty string) ([]model.Challenge, error) {
	var list []model.Challenge
	q := r.DB.Order("points ASC, id ASC")
	if difficulty != "" {
		q = q.Where("difficulty = ?", difficulty)
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *ChallengeRepository) Create(c *model.Challenge) error {
	return r.DB.Create(c).Error
}

func (r *ChallengeRepository) FindAttemptForUpdate(userID, challengeID uint) (*model.ChallengeAttempt, error) {
	var a model.ChallengeAttempt
	err := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		First(&a).Error
	return &a, err
}

func (r *ChallengeRepository) CreateAttempt(a *model.ChallengeAttempt) error {
	return r.DB.Create(a).Error
}

func (r *ChallengeRepository) SaveAttempt(a *model.ChallengeAttempt) error {
	return r.DB.Save(a).Error
}

// CompletedChallengeIDs 用户已完成的挑战
func (r *ChallengeRepository) CompletedChallengeIDs(userID uint) (map[uint]bool, error) {
	var ids []uint
	err := r.DB.Model(&model.ChallengeAttempt{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Pluck("challenge_id", &ids).Error
	out := make(map[uint]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, err
}
