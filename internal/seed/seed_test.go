package seed

import (
	"encoding/json"
	"testing"

	"pythonchick_backend/internal/config"
	"pythonchick_backend/internal/model"
	"pythonchick_backend/pkg/database"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, gormlogger.Silent)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestRunIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	first, err := Run(db)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Courses == 0 || first.Challenges == 0 || first.Games == 0 {
		t.Fatalf("first run created nothing: %+v", first)
	}

	second, err := Run(db)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second != (Stats{}) {
		t.Fatalf("second run: want=%+v got=%+v", Stats{}, second)
	}

	var courses int64
	db.Model(&model.Course{}).Count(&courses)
	if int(courses) != first.Courses {
		t.Fatalf("courses: want=%d got=%d", first.Courses, courses)
	}
}

func TestRunLockState(t *testing.T) {
	db := newTestDB(t)
	if _, err := Run(db); err != nil {
		t.Fatalf("run: %v", err)
	}

	var courses []model.Course
	db.Order("order_index").Find(&courses)
	for i, c := range courses {
		if c.IsLocked != (i > 0) {
			t.Fatalf("course %q locked: want=%v got=%v", c.Title, i > 0, c.IsLocked)
		}
		var topics []model.Topic
		db.Where("course_id = ?", c.ID).Order("order_index").Find(&topics)
		for j, tp := range topics {
			if tp.IsLocked != (j > 0) {
				t.Fatalf("topic %q locked: want=%v got=%v", tp.Title, j > 0, tp.IsLocked)
			}
		}
	}
	if courses[0].Slug != "python-basics" {
		t.Fatalf("slug: want=python-basics got=%s", courses[0].Slug)
	}
}

func TestRunChallengesKeepExpectedOutput(t *testing.T) {
	db := newTestDB(t)
	if _, err := Run(db); err != nil {
		t.Fatalf("run: %v", err)
	}

	cases := map[string]string{
		"Hello, World!":  "Hello, World!",
		"Sum of Numbers": "8",
		"Even Numbers":   "2\n4\n6\n8\n10",
	}
	for title, want := range cases {
		var ch model.Challenge
		if err := db.Where("title = ?", title).Take(&ch).Error; err != nil {
			t.Fatalf("find %q: %v", title, err)
		}
		if ch.ExpectedOutput != want {
			t.Fatalf("%s expected output: want=%q got=%q", title, want, ch.ExpectedOutput)
		}
		if len(ch.Hints) == 0 {
			t.Fatalf("%s: hints missing", title)
		}
	}
}

func TestLessonContentIsJSON(t *testing.T) {
	db := newTestDB(t)
	if _, err := Run(db); err != nil {
		t.Fatalf("run: %v", err)
	}

	var lesson model.Lesson
	if err := db.Where("title = ?", "Hello, Python!").Take(&lesson).Error; err != nil {
		t.Fatalf("find lesson: %v", err)
	}
	var blocks []map[string]string
	if err := json.Unmarshal(lesson.Content, &blocks); err != nil {
		t.Fatalf("content: %v", err)
	}
	if len(blocks) != 2 || blocks[0]["type"] != "text" {
		t.Fatalf("content blocks: got=%v", blocks)
	}
}

func TestApplyRejectsUnknownLessonType(t *testing.T) {
	db := newTestDB(t)
	c := &Catalogue{Courses: []CourseSeed{{
		Title:  "Broken",
		Topics: []TopicSeed{{Title: "T", Lessons: []LessonSeed{{Title: "L", Type: "video"}}}},
	}}}
	if _, err := Apply(db, c); err == nil {
		t.Fatal("expected error for unknown lesson type")
	}

	var n int64
	db.Model(&model.Course{}).Count(&n)
	if n != 0 {
		t.Fatalf("courses after rollback: want=0 got=%d", n)
	}
}

func TestQuizLessonsSeedQuestions(t *testing.T) {
	db := newTestDB(t)
	if _, err := Run(db); err != nil {
		t.Fatalf("run: %v", err)
	}

	var lesson model.Lesson
	if err := db.Where("title = ?", "Getting Started Quiz").Take(&lesson).Error; err != nil {
		t.Fatalf("find quiz: %v", err)
	}
	var questions []model.QuizQuestion
	db.Where("lesson_id = ?", lesson.ID).Preload("Options").Order("order_index").Find(&questions)
	if len(questions) != 2 {
		t.Fatalf("questions: want=2 got=%d", len(questions))
	}
	for _, q := range questions {
		correct := 0
		for _, o := range q.Options {
			if o.IsCorrect {
				correct++
			}
		}
		if len(q.Options) != 3 || correct != 1 {
			t.Fatalf("%q options/correct: want=3/1 got=%d/%d", q.Question, len(q.Options), correct)
		}
	}
}

func TestApplyRejectsQuizWithoutSingleAnswer(t *testing.T) {
	db := newTestDB(t)
	c := &Catalogue{Courses: []CourseSeed{{
		Title: "Broken quiz",
		Topics: []TopicSeed{{Title: "T", Lessons: []LessonSeed{{
			Title: "Q",
			Type:  "quiz",
			Questions: []QuestionSeed{{
				Question: "pick",
				Options:  []OptionSeed{{Text: "a", Correct: true}, {Text: "b", Correct: true}},
			}},
		}}}},
	}}}
	if _, err := Apply(db, c); err == nil {
		t.Fatal("expected error for two correct options")
	}

	var n int64
	db.Model(&model.QuizQuestion{}).Count(&n)
	if n != 0 {
		t.Fatalf("questions after rollback: want=0 got=%d", n)
	}
}
