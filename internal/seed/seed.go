// Package seed 把内置的课程目录、挑战和游戏写入数据库，可重复执行
package seed

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"pythonchick_backend/internal/model"
	"pythonchick_backend/pkg/logger"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

//go:embed catalogue.yaml
var defaultCatalogue []byte

type Catalogue struct {
	Courses    []CourseSeed    `yaml:"courses"`
	Challenges []ChallengeSeed `yaml:"challenges"`
	Games      []GameSeed      `yaml:"games"`
}

type CourseSeed struct {
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	ImageURL    string      `yaml:"image_url"`
	Topics      []TopicSeed `yaml:"topics"`
}

type TopicSeed struct {
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	Lessons     []LessonSeed `yaml:"lessons"`
}

type LessonSeed struct {
	Title                string         `yaml:"title"`
	Type                 string         `yaml:"type"`
	XPReward             int            `yaml:"xp_reward"`
	CoinsReward          int            `yaml:"coins_reward"`
	EstimatedTimeMinutes int            `yaml:"estimated_time_minutes"`
	Content              []interface{}  `yaml:"content"`
	Questions            []QuestionSeed `yaml:"questions"`
}

type QuestionSeed struct {
	Question    string       `yaml:"question"`
	Explanation string       `yaml:"explanation"`
	Options     []OptionSeed `yaml:"options"`
}

type OptionSeed struct {
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct"`
}

type ChallengeSeed struct {
	Title          string   `yaml:"title"`
	Description    string   `yaml:"description"`
	Difficulty     string   `yaml:"difficulty"`
	StarterCode    string   `yaml:"starter_code"`
	SolutionCode   string   `yaml:"solution_code"`
	ExpectedOutput string   `yaml:"expected_output"`
	Points         int      `yaml:"points"`
	Hints          []string `yaml:"hints"`
}

type GameSeed struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
	ImageURL    string `yaml:"image_url"`
	Difficulty  string `yaml:"difficulty"`
	Category    string `yaml:"category"`
	XPReward    int    `yaml:"xp_reward"`
}

type Stats struct {
	Courses    int
	Challenges int
	Games      int
}

func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	return &c, nil
}

// Run 写入内置目录
func Run(db *gorm.DB) (Stats, error) {
	c, err := Parse(defaultCatalogue)
	if err != nil {
		return Stats{}, err
	}
	return Apply(db, c)
}

// Apply 已存在的课程（按 slug）、挑战（按标题）和游戏（按 slug）会被跳过。
// 只有第一个课程及每个课程的第一个主题默认解锁
func Apply(db *gorm.DB, c *Catalogue) (Stats, error) {
	var stats Stats
	err := db.Transaction(func(tx *gorm.DB) error {
		for i, cs := range c.Courses {
			created, err := applyCourse(tx, i, cs)
			if err != nil {
				return err
			}
			if created {
				stats.Courses++
			}
		}
		for _, cs := range c.Challenges {
			created, err := applyChallenge(tx, cs)
			if err != nil {
				return err
			}
			if created {
				stats.Challenges++
			}
		}
		for i, gs := range c.Games {
			created, err := applyGame(tx, i, gs)
			if err != nil {
				return err
			}
			if created {
				stats.Games++
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	logger.Log.Info("catalogue seeded",
		zap.Int("courses", stats.Courses),
		zap.Int("challenges", stats.Challenges),
		zap.Int("games", stats.Games))
	return stats, nil
}

func exists(tx *gorm.DB, m interface{}, query string, arg interface{}) (bool, error) {
	err := tx.Where(query, arg).Take(m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func applyCourse(tx *gorm.DB, index int, cs CourseSeed) (bool, error) {
	courseSlug := slug.Make(cs.Title)
	found, err := exists(tx, &model.Course{}, "slug = ?", courseSlug)
	if err != nil || found {
		return false, err
	}

	course := model.Course{
		Title:       cs.Title,
		Slug:        courseSlug,
		Description: cs.Description,
		ImageURL:    cs.ImageURL,
		OrderIndex:  index,
		IsLocked:    index > 0,
	}
	if err := tx.Create(&course).Error; err != nil {
		return false, err
	}

	for ti, ts := range cs.Topics {
		topic := model.Topic{
			CourseID:    course.ID,
			Title:       ts.Title,
			Description: ts.Description,
			OrderIndex:  ti,
			IsLocked:    ti > 0,
		}
		if err := tx.Create(&topic).Error; err != nil {
			return false, err
		}

		for li, ls := range ts.Lessons {
			lesson, err := buildLesson(topic.ID, li, ls)
			if err != nil {
				return false, fmt.Errorf("lesson %q: %w", ls.Title, err)
			}
			if err := tx.Create(lesson).Error; err != nil {
				return false, err
			}
		}
	}
	return true, nil
}

func buildLesson(topicID uint, index int, ls LessonSeed) (*model.Lesson, error) {
	lessonType := model.LessonType(ls.Type)
	switch lessonType {
	case model.LessonTypeLesson, model.LessonTypeQuiz, model.LessonTypeCoding:
	case "":
		lessonType = model.LessonTypeLesson
	default:
		return nil, fmt.Errorf("unknown lesson type %q", ls.Type)
	}

	var content datatypes.JSON
	if len(ls.Content) > 0 {
		raw, err := json.Marshal(ls.Content)
		if err != nil {
			return nil, err
		}
		content = raw
	}

	if len(ls.Questions) > 0 && lessonType != model.LessonTypeQuiz {
		return nil, fmt.Errorf("questions only belong to quiz lessons, got type %q", lessonType)
	}
	questions := make([]model.QuizQuestion, 0, len(ls.Questions))
	for qi, qs := range ls.Questions {
		q := model.QuizQuestion{Question: qs.Question, Explanation: qs.Explanation, OrderIndex: qi}
		correct := 0
		for oi, opt := range qs.Options {
			if opt.Correct {
				correct++
			}
			q.Options = append(q.Options, model.QuizOption{Text: opt.Text, IsCorrect: opt.Correct, OrderIndex: oi})
		}
		if correct != 1 {
			return nil, fmt.Errorf("question %q needs exactly one correct option, got %d", qs.Question, correct)
		}
		questions = append(questions, q)
	}

	return &model.Lesson{
		TopicID:              topicID,
		Title:                ls.Title,
		Type:                 lessonType,
		Content:              content,
		OrderIndex:           index,
		XPReward:             ls.XPReward,
		CoinsReward:          ls.CoinsReward,
		EstimatedTimeMinutes: ls.EstimatedTimeMinutes,
		QuizQuestions:        questions,
	}, nil
}

func applyChallenge(tx *gorm.DB, cs ChallengeSeed) (bool, error) {
	found, err := exists(tx, &model.Challenge{}, "title = ?", cs.Title)
	if err != nil || found {
		return false, err
	}
	ch := model.Challenge{
		Title:          cs.Title,
		Description:    cs.Description,
		Difficulty:     model.Difficulty(cs.Difficulty),
		StarterCode:    cs.StarterCode,
		SolutionCode:   cs.SolutionCode,
		ExpectedOutput: cs.ExpectedOutput,
		Hints:          datatypes.JSONSlice[string](cs.Hints),
		Points:         cs.Points,
	}
	return true, tx.Create(&ch).Error
}

func applyGame(tx *gorm.DB, index int, gs GameSeed) (bool, error) {
	gameSlug := gs.Slug
	if gameSlug == "" {
		gameSlug = slug.Make(gs.Title)
	}
	found, err := exists(tx, &model.Game{}, "slug = ?", gameSlug)
	if err != nil || found {
		return false, err
	}
	g := model.Game{
		Slug:        gameSlug,
		Title:       gs.Title,
		Description: gs.Description,
		Difficulty:  model.Difficulty(gs.Difficulty),
		Category:    gs.Category,
		ImageURL:    gs.ImageURL,
		OrderIndex:  index,
		XPReward:    gs.XPReward,
		IsActive:    true,
	}
	return true, tx.Create(&g).Error
}
