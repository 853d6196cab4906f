package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pythonchick_backend/internal/model"
	"pythonchick_backend/internal/repository"
	"pythonchick_backend/internal/util"
	"pythonchick_backend/pkg/logger"
	"pythonchick_backend/pkg/monitoring"
	"pythonchick_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProgressionService 经验、金币、等级、连续天数与内容解锁的唯一写入口
type ProgressionService struct {
	DB           *gorm.DB
	UserRepo     *repository.UserRepository
	ContentRepo  *repository.ContentRepository
	ProgressRepo *repository.ProgressRepository
	ActivityRepo *repository.ActivityRepository
	Now          func() time.Time
}

func NewProgressionService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	contentRepo *repository.ContentRepository,
	progressRepo *repository.ProgressRepository,
	activityRepo *repository.ActivityRepository,
) *ProgressionService {
	return &ProgressionService{
		DB:           db,
		UserRepo:     userRepo,
		ContentRepo:  contentRepo,
		ProgressRepo: progressRepo,
		ActivityRepo: activityRepo,
		Now:          time.Now,
	}
}

type LessonCompletionResult struct {
	Success           bool   `json:"success"`
	XPEarned          int    `json:"xp_earned"`
	CoinsEarned       int    `json:"coins_earned"`
	Attempts          int    `json:"attempts"`
	IsCompleted       bool   `json:"is_completed"`
	Score             *int   `json:"score"`
	Experience        int    `json:"experience"`
	Level             int    `json:"level"`
	Streak            int    `json:"streak"`
	UnlockedTopicIDs  []uint `json:"unlocked_topic_ids"`
	UnlockedCourseIDs []uint `json:"unlocked_course_ids"`
}

type RewardResult struct {
	XPEarned    int `json:"xp_earned"`
	CoinsEarned int `json:"coins_earned"`
	Experience  int `json:"experience"`
	Level       int `json:"level"`
	Coins       int `json:"coins"`
}

// ApplyLessonCompletion 进度、奖励、连续天数与级联解锁在一个事务里提交
func (s *ProgressionService) ApplyLessonCompletion(ctx context.Context, userID, lessonID uint, score *int) (*LessonCompletionResult, error) {
	ctx, span := tracing.Start(ctx, "progression.lesson_completion")
	defer span.End()
	span.SetAttributes(attribute.Int("user.id", int(userID)), attribute.Int("lesson.id", int(lessonID)))

	var result *LessonCompletionResult
	err := retryOnConflict("lesson_completion", func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			r, err := s.completeLesson(tx, userID, lessonID, score)
			result = r
			return err
		})
	})
	if err != nil {
		if !errors.Is(err, util.ErrLessonNotFound) && !errors.Is(err, util.ErrUserNotFound) {
			logger.Log.Error("apply lesson completion failed",
				zap.Uint("userID", userID),
				zap.Uint("lessonID", lessonID),
				zap.Error(err))
		}
		return nil, err
	}

	monitoring.ProgressionRewards.WithLabelValues(string(model.ActivityLessonCompleted)).Inc()
	return result, nil
}

func (s *ProgressionService) completeLesson(tx *gorm.DB, userID, lessonID uint, score *int) (*LessonCompletionResult, error) {
	users := s.UserRepo.WithTx(tx)
	content := s.ContentRepo.WithTx(tx)
	progressRepo := s.ProgressRepo.WithTx(tx)
	now := s.Now()

	lesson, err := content.FindLesson(lessonID)
	if err != nil {
		return nil, notFound(err, util.ErrLessonNotFound)
	}

	// 先锁用户行，同一用户的并发完成在此串行
	user, err := users.FindByIDForUpdate(userID)
	if err != nil {
		return nil, notFound(err, util.ErrUserNotFound)
	}

	progress, err := progressRepo.FindForUpdate(userID, lessonID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		progress = &model.LessonProgress{
			UserID:        userID,
			LessonID:      lessonID,
			IsCompleted:   true,
			Score:         score,
			Attempts:      1,
			CompletedAt:   &now,
			LastAttemptAt: &now,
		}
		if err := progressRepo.Create(progress); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		progress.Attempts++
		progress.IsCompleted = true
		if score != nil {
			progress.Score = score
		}
		progress.CompletedAt = &now
		progress.LastAttemptAt = &now
		if err := progressRepo.Save(progress); err != nil {
			return nil, err
		}
	}

	user.Streak = NextStreak(user.Streak, user.LastActivityAt, now)
	user.LastActivityAt = &now
	data, _ := json.Marshal(map[string]interface{}{
		"lesson_id": lessonID,
		"score":     score,
	})
	if err := s.credit(tx, user, lesson.XPReward, lesson.CoinsReward, model.ActivityLessonCompleted, string(data)); err != nil {
		return nil, err
	}

	plan, err := s.cascadeUnlock(tx, userID, lesson)
	if err != nil {
		return nil, err
	}

	return &LessonCompletionResult{
		Success:           true,
		XPEarned:          lesson.XPReward,
		CoinsEarned:       lesson.CoinsReward,
		Attempts:          progress.Attempts,
		IsCompleted:       progress.IsCompleted,
		Score:             progress.Score,
		Experience:        user.Experience,
		Level:             user.Level,
		Streak:            user.Streak,
		UnlockedTopicIDs:  plan.TopicIDs,
		UnlockedCourseIDs: plan.CourseIDs,
	}, nil
}

// cascadeUnlock 每次完成都会重新检查，对已解锁的实体是空操作
func (s *ProgressionService) cascadeUnlock(tx *gorm.DB, userID uint, lesson *model.Lesson) (UnlockPlan, error) {
	content := s.ContentRepo.WithTx(tx)
	progressRepo := s.ProgressRepo.WithTx(tx)

	state, err := s.loadCascadeState(content, progressRepo, userID, lesson.TopicID)
	if err != nil {
		return UnlockPlan{}, err
	}

	plan := PlanUnlocks(state)
	for _, id := range plan.CourseIDs {
		if _, err := content.UnlockCourse(id); err != nil {
			return UnlockPlan{}, err
		}
	}
	for _, id := range plan.TopicIDs {
		if _, err := content.UnlockTopic(id); err != nil {
			return UnlockPlan{}, err
		}
	}
	if !plan.Empty() {
		logger.Log.Info("content unlocked",
			zap.Uint("userID", userID),
			zap.Uints("topicIDs", plan.TopicIDs),
			zap.Uints("courseIDs", plan.CourseIDs))
	}
	return plan, nil
}

func (s *ProgressionService) loadCascadeState(content *repository.ContentRepository, progressRepo *repository.ProgressRepository, userID, topicID uint) (CascadeState, error) {
	var state CascadeState

	topic, err := content.FindTopic(topicID)
	if err != nil {
		return state, notFound(err, util.ErrTopicNotFound)
	}
	if state.TopicLessons, err = content.CountLessons(topicID); err != nil {
		return state, err
	}
	if state.TopicCompleted, err = progressRepo.CountCompletedInTopic(userID, topicID); err != nil {
		return state, err
	}
	if state.TopicCompleted < state.TopicLessons {
		return state, nil
	}

	next, err := content.NextTopic(topic.CourseID, topic.OrderIndex)
	switch {
	case err == nil:
		state.NextTopic = next
		return state, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return state, err
	}

	course, err := content.FindCourse(topic.CourseID)
	if err != nil {
		return state, notFound(err, util.ErrCourseNotFound)
	}
	nextCourse, err := content.NextCourse(course.OrderIndex)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return state, nil
	} else if err != nil {
		return state, err
	}
	first, err := content.FirstTopic(nextCourse.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return state, nil
	} else if err != nil {
		return state, err
	}
	state.NextCourse = nextCourse
	state.NextCourseFirstTopic = first
	return state, nil
}

// ApplyReward 游戏或挑战奖励，独立事务
func (s *ProgressionService) ApplyReward(ctx context.Context, userID uint, xp, coins int, source model.ActivityType, data string) (*RewardResult, error) {
	ctx, span := tracing.Start(ctx, "progression.reward")
	defer span.End()

	var result *RewardResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.ApplyRewardTx(tx, userID, xp, coins, source, data)
		result = r
		return err
	})
	return result, err
}

// ApplyRewardTx 在调用方事务中加奖励并重算等级
func (s *ProgressionService) ApplyRewardTx(tx *gorm.DB, userID uint, xp, coins int, source model.ActivityType, data string) (*RewardResult, error) {
	user, err := s.UserRepo.WithTx(tx).FindByIDForUpdate(userID)
	if err != nil {
		return nil, notFound(err, util.ErrUserNotFound)
	}
	if err := s.credit(tx, user, xp, coins, source, data); err != nil {
		return nil, err
	}
	monitoring.ProgressionRewards.WithLabelValues(string(source)).Inc()
	return &RewardResult{
		XPEarned:    xp,
		CoinsEarned: coins,
		Experience:  user.Experience,
		Level:       user.Level,
		Coins:       user.Coins,
	}, nil
}

// credit 用户行必须已在 tx 中加锁
func (s *ProgressionService) credit(tx *gorm.DB, user *model.User, xp, coins int, source model.ActivityType, data string) error {
	if xp < 0 || coins < 0 {
		return fmt.Errorf("negative reward xp=%d coins=%d", xp, coins)
	}
	user.Experience += xp
	user.Coins += coins
	user.Level = model.LevelForExperience(user.Experience)
	if err := s.UserRepo.WithTx(tx).Update(user); err != nil {
		return err
	}

	return s.ActivityRepo.WithTx(tx).Create(&model.UserActivity{
		UserID:       user.ID,
		ActivityType: source,
		ActivityData: data,
		XPEarned:     xp,
		CoinsEarned:  coins,
	})
}

// NextStreak 上次活动距今不超过一个自然日（含当天）则 +1，否则重置为 1
func NextStreak(current int, last *time.Time, now time.Time) int {
	if last == nil {
		return 1
	}
	if calendarDaysBetween(*last, now) <= 1 {
		return current + 1
	}
	return 1
}

func calendarDaysBetween(from, to time.Time) int {
	fy, fm, fd := from.In(to.Location()).Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
