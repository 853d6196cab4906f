package service

import (
	"context"
	"errors"
	"testing"

	"pythonchick_backend/internal/model"
	"pythonchick_backend/internal/util"
)

func TestContentCompletionCounts(t *testing.T) {
	env := newTestEnv(t)
	cat := buildCatalogue(t, env, 1, 2, 2)
	user := env.newUser(t, "ada")
	ctx := context.Background()

	first := cat.topics[0]
	for _, l := range cat.lessons[first.ID] {
		if _, err := env.Progression.ApplyLessonCompletion(ctx, user.ID, l.ID, nil); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}
	second := cat.topics[1]
	if _, err := env.Progression.ApplyLessonCompletion(ctx, user.ID, cat.lessons[second.ID][0].ID, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}

	courses, err := env.Content.ListCourses(user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(courses) != 1 || courses[0].TotalTopics != 2 || courses[0].CompletedTopics != 1 {
		t.Fatalf("course summary: got=%+v", courses)
	}

	detail, err := env.Content.GetCourse(cat.courses[0].ID, user.ID)
	if err != nil {
		t.Fatalf("course: %v", err)
	}
	if detail.Topics[1].CompletedLessons != 1 || detail.Topics[1].TotalLessons != 2 || detail.Topics[1].IsCompleted {
		t.Fatalf("topic summary: got=%+v", detail.Topics[1])
	}
	if detail.Topics[1].IsLocked {
		t.Fatal("second topic should be unlocked after finishing the first")
	}

	topic, err := env.Content.GetTopic(second.ID, user.ID)
	if err != nil {
		t.Fatalf("topic: %v", err)
	}
	if !topic.Lessons[0].IsCompleted || topic.Lessons[1].IsCompleted {
		t.Fatalf("lesson flags: got=%v/%v", topic.Lessons[0].IsCompleted, topic.Lessons[1].IsCompleted)
	}
}

func TestContentAnonymous(t *testing.T) {
	env := newTestEnv(t)
	cat := buildCatalogue(t, env, 1, 1, 1)

	lesson, err := env.Content.GetLesson(cat.lessons[cat.topics[0].ID][0].ID, 0)
	if err != nil {
		t.Fatalf("lesson: %v", err)
	}
	if lesson.IsCompleted {
		t.Fatal("anonymous lesson marked completed")
	}

	if _, err := env.Content.GetCourse(999, 0); !errors.Is(err, util.ErrCourseNotFound) {
		t.Fatalf("course: want=%v got=%v", util.ErrCourseNotFound, err)
	}
	if _, err := env.Content.GetTopic(999, 0); !errors.Is(err, util.ErrTopicNotFound) {
		t.Fatalf("topic: want=%v got=%v", util.ErrTopicNotFound, err)
	}
	if _, err := env.Content.GetLesson(999, 0); !errors.Is(err, util.ErrLessonNotFound) {
		t.Fatalf("lesson: want=%v got=%v", util.ErrLessonNotFound, err)
	}
}

func TestGetLessonIncludesQuizQuestions(t *testing.T) {
	env := newTestEnv(t)
	cat := buildCatalogue(t, env, 1, 1, 1)
	topic := cat.topics[0]

	quiz := &model.Lesson{
		TopicID:    topic.ID,
		Title:      "Quiz",
		Type:       model.LessonTypeQuiz,
		OrderIndex: 1,
		QuizQuestions: []model.QuizQuestion{
			{Question: "second", OrderIndex: 1, Options: []model.QuizOption{
				{Text: "yes", IsCorrect: true, OrderIndex: 0},
			}},
			{Question: "first", Explanation: "print shows text", OrderIndex: 0, Options: []model.QuizOption{
				{Text: "show()", OrderIndex: 1},
				{Text: "print()", IsCorrect: true, OrderIndex: 0},
			}},
		},
	}
	env.mustCreate(t, quiz)

	got, err := env.Content.GetLesson(quiz.ID, 0)
	if err != nil {
		t.Fatalf("lesson: %v", err)
	}
	if len(got.QuizQuestions) != 2 {
		t.Fatalf("questions: want=2 got=%d", len(got.QuizQuestions))
	}
	q := got.QuizQuestions[0]
	if q.Question != "first" || q.Explanation != "print shows text" {
		t.Fatalf("question order: got=%q", q.Question)
	}
	if len(q.Options) != 2 || q.Options[0].Text != "print()" || !q.Options[0].IsCorrect || q.Options[1].IsCorrect {
		t.Fatalf("options: got=%+v", q.Options)
	}

	plain, err := env.Content.GetLesson(cat.lessons[topic.ID][0].ID, 0)
	if err != nil {
		t.Fatalf("plain lesson: %v", err)
	}
	if len(plain.QuizQuestions) != 0 {
		t.Fatalf("plain lesson questions: want=0 got=%d", len(plain.QuizQuestions))
	}
}
