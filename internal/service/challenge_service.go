package service

import (
	"context"
	"encoding/json"
	"errors"

	"pythonchick_backend/internal/model"
	"pythonchick_backend/internal/repository"
	"pythonchick_backend/internal/sandbox"
	"pythonchick_backend/internal/util"
	"pythonchick_backend/pkg/logger"
	"pythonchick_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ChallengeService struct {
	DB            *gorm.DB
	ChallengeRepo *repository.ChallengeRepository
	Execution     *ExecutionService
	Progression   *ProgressionService
}

func NewChallengeService(
	db *gorm.DB,
	challengeRepo *repository.ChallengeRepository,
	execution *ExecutionService,
	progression *ProgressionService,
) *ChallengeService {
	return &ChallengeService{
		DB:            db,
		ChallengeRepo: challengeRepo,
		Execution:     execution,
		Progression:   progression,
	}
}

// EvaluationResult 不包含期望输出与参考答案
type EvaluationResult struct {
	Success       bool    `json:"success"`
	Correct       bool    `json:"correct"`
	PointsEarned  int     `json:"points_earned"`
	CoinsEarned   int     `json:"coins_earned"`
	Output        string  `json:"output"`
	Error         string  `json:"error"`
	ExecutionTime float64 `json:"execution_time"`
	Attempts      int     `json:"attempts"`
}

// ChallengeView 列表展示用，附带当前用户是否已完成
type ChallengeView struct {
	model.Challenge
	Completed bool `json:"completed"`
}

func (s *ChallengeService) List(userID uint, difficulty string) ([]ChallengeView, error) {
	list, err := s.ChallengeRepo.List(difficulty)
	if err != nil {
		return nil, err
	}
	done, err := s.ChallengeRepo.CompletedChallengeIDs(userID)
	if err != nil {
		return nil, err
	}
	views := make([]ChallengeView, 0, len(list))
	for _, c := range list {
		views = append(views, ChallengeView{Challenge: c, Completed: done[c.ID]})
	}
	return views, nil
}

// Evaluate 运行提交的代码并与挑战的期望输出比较。
// 执行失败（非零退出、超时、内部错误）直接判错，既无奖励也不计尝试次数
func (s *ChallengeService) Evaluate(ctx context.Context, userID, challengeID uint, code string) (*EvaluationResult, error) {
	challenge, err := s.ChallengeRepo.FindByID(challengeID)
	if err != nil {
		return nil, notFound(err, util.ErrChallengeNotFound)
	}

	// 期望输出不传给沙箱，比较只在这里做
	exec := s.Execution.Execute(ctx, code, nil)

	result := &EvaluationResult{
		Success:       exec.Success,
		Output:        exec.Output,
		Error:         exec.Error,
		ExecutionTime: exec.ExecutionTime,
	}
	// 运行失败原样返回，不记尝试也不发奖励
	if !exec.Success {
		monitoring.ChallengeEvaluations.WithLabelValues("failed").Inc()
		return result, nil
	}

	result.Correct = sandbox.Matches(exec.Output, challenge.ExpectedOutput)
	if result.Correct {
		result.PointsEarned = challenge.Points
		result.CoinsEarned = challenge.Points / 2
	}

	err = retryOnConflict("challenge_attempt", func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			attempt, err := s.recordAttempt(tx, userID, challengeID, code, result.Correct)
			if err != nil {
				return err
			}
			result.Attempts = attempt.Attempts

			if !result.Correct {
				return nil
			}
			data, _ := json.Marshal(map[string]interface{}{
				"challenge_id": challengeID,
				"attempts":     attempt.Attempts,
			})
			_, err = s.Progression.ApplyRewardTx(tx, userID, result.PointsEarned, result.CoinsEarned, model.ActivityChallengeCompleted, string(data))
			return err
		})
	})
	if err != nil {
		logger.Log.Error("record challenge attempt failed",
			zap.Uint("userID", userID),
			zap.Uint("challengeID", challengeID),
			zap.Error(err))
		return nil, err
	}

	outcome := "incorrect"
	if result.Correct {
		outcome = "correct"
	}
	monitoring.ChallengeEvaluations.WithLabelValues(outcome).Inc()

	return result, nil
}

// recordAttempt 每个 (用户, 挑战) 一行；completed 只会从 false 变为 true
func (s *ChallengeService) recordAttempt(tx *gorm.DB, userID, challengeID uint, code string, correct bool) (*model.ChallengeAttempt, error) {
	repo := s.ChallengeRepo.WithTx(tx)
	now := s.Progression.Now()

	// 锁用户行，使同一用户的提交串行
	if _, err := s.Progression.UserRepo.WithTx(tx).FindByIDForUpdate(userID); err != nil {
		return nil, notFound(err, util.ErrUserNotFound)
	}

	attempt, err := repo.FindAttemptForUpdate(userID, challengeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		attempt = &model.ChallengeAttempt{
			UserID:        userID,
			ChallengeID:   challengeID,
			Attempts:      1,
			CodeSubmitted: code,
			Completed:     correct,
			LastAttemptAt: &now,
		}
		if correct {
			attempt.CompletedAt = &now
		}
		return attempt, repo.CreateAttempt(attempt)
	}
	if err != nil {
		return nil, err
	}

	attempt.Attempts++
	attempt.CodeSubmitted = code
	attempt.LastAttemptAt = &now
	if correct && !attempt.Completed {
		attempt.Completed = true
		attempt.CompletedAt = &now
	}
	return attempt, repo.SaveAttempt(attempt)
}
