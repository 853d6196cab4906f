package repository

import (
	"errors"
	"testing"

	"pythonchick_backend/internal/config"
	"pythonchick_backend/internal/model"
	"pythonchick_backend/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, logger.Silent)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustCreate(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func TestNextTopicAndCourse(t *testing.T) {
	db := newTestDB(t)
	repo := NewContentRepository(db)

	c1 := &model.Course{Title: "Basics", Slug: "basics", OrderIndex: 0}
	c2 := &model.Course{Title: "Loops", Slug: "loops", OrderIndex: 1, IsLocked: true}
	mustCreate(t, db, c1)
	mustCreate(t, db, c2)
	t1 := &model.Topic{CourseID: c1.ID, Title: "Print", OrderIndex: 0}
	t2 := &model.Topic{CourseID: c1.ID, Title: "Vars", OrderIndex: 1, IsLocked: true}
	t3 := &model.Topic{CourseID: c2.ID, Title: "For", OrderIndex: 0, IsLocked: true}
	mustCreate(t, db, t1)
	mustCreate(t, db, t2)
	mustCreate(t, db, t3)

	next, err := repo.NextTopic(c1.ID, t1.OrderIndex)
	if err != nil || next.ID != t2.ID {
		t.Fatalf("next topic: want=%d got=%d err=%v", t2.ID, next.ID, err)
	}
	if _, err := repo.NextTopic(c1.ID, t2.OrderIndex); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("no next topic: want=ErrRecordNotFound got=%v", err)
	}
	course, err := repo.NextCourse(c1.OrderIndex)
	if err != nil || course.ID != c2.ID {
		t.Fatalf("next course: want=%d got=%d err=%v", c2.ID, course.ID, err)
	}
	first, err := repo.FirstTopic(c2.ID)
	if err != nil || first.ID != t3.ID {
		t.Fatalf("first topic: want=%d got=%d err=%v", t3.ID, first.ID, err)
	}
}

func TestUnlockTopicIsMonotonic(t *testing.T) {
	db := newTestDB(t)
	repo := NewContentRepository(db)

	topic := &model.Topic{CourseID: 1, Title: "Vars", OrderIndex: 1, IsLocked: true}
	mustCreate(t, db, topic)

	changed, err := repo.UnlockTopic(topic.ID)
	if err != nil || !changed {
		t.Fatalf("first unlock: want changed=true got=%v err=%v", changed, err)
	}
	changed, err = repo.UnlockTopic(topic.ID)
	if err != nil || changed {
		t.Fatalf("second unlock: want changed=false got=%v err=%v", changed, err)
	}
	got, _ := repo.FindTopic(topic.ID)
	if got.IsLocked {
		t.Fatalf("topic should be unlocked")
	}
}

func TestCountCompletedInTopic(t *testing.T) {
	db := newTestDB(t)
	progress := NewProgressRepository(db)

	l1 := &model.Lesson{TopicID: 7, Title: "a", Type: model.LessonTypeLesson}
	l2 := &model.Lesson{TopicID: 7, Title: "b", Type: model.LessonTypeLesson}
	other := &model.Lesson{TopicID: 8, Title: "c", Type: model.LessonTypeLesson}
	mustCreate(t, db, l1)
	mustCreate(t, db, l2)
	mustCreate(t, db, other)

	mustCreate(t, db, &model.LessonProgress{UserID: 1, LessonID: l1.ID, IsCompleted: true, Attempts: 1})
	mustCreate(t, db, &model.LessonProgress{UserID: 1, LessonID: other.ID, IsCompleted: true, Attempts: 1})
	mustCreate(t, db, &model.LessonProgress{UserID: 2, LessonID: l2.ID, IsCompleted: true, Attempts: 1})

	n, err := progress.CountCompletedInTopic(1, 7)
	if err != nil || n != 1 {
		t.Fatalf("completed in topic: want=1 got=%d err=%v", n, err)
	}

	done, err := progress.CompletedLessonIDs(1, []uint{l1.ID, l2.ID})
	if err != nil || !done[l1.ID] || done[l2.ID] {
		t.Fatalf("completed ids: got=%v err=%v", done, err)
	}
}

func TestCountLessonsByTopic(t *testing.T) {
	db := newTestDB(t)
	repo := NewContentRepository(db)

	for i := 0; i < 3; i++ {
		mustCreate(t, db, &model.Lesson{TopicID: 1, Title: "x", Type: model.LessonTypeLesson, OrderIndex: i})
	}
	mustCreate(t, db, &model.Lesson{TopicID: 2, Title: "y", Type: model.LessonTypeQuiz})

	counts, err := repo.CountLessonsByTopic([]uint{1, 2, 3})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[1] != 3 || counts[2] != 1 || counts[3] != 0 {
		t.Fatalf("counts: got=%v", counts)
	}
}

func TestChallengeListByDifficulty(t *testing.T) {
	db := newTestDB(t)
	repo := NewChallengeRepository(db)

	mustCreate(t, db, &model.Challenge{Title: "Hello", Difficulty: model.DifficultyBeginner, Points: 10, ExpectedOutput: "Hello, World!"})
	mustCreate(t, db, &model.Challenge{Title: "Fib", Difficulty: model.DifficultyAdvanced, Points: 30})

	all, err := repo.List("")
	if err != nil || len(all) != 2 {
		t.Fatalf("all: want=2 got=%d err=%v", len(all), err)
	}
	beginner, err := repo.List("beginner")
	if err != nil || len(beginner) != 1 || beginner[0].Title != "Hello" {
		t.Fatalf("beginner: got=%v err=%v", beginner, err)
	}
	if beginner[0].ExpectedOutput != "Hello, World!" {
		t.Fatalf("hidden fields must still load from the database")
	}
}
