package service

import (
	"pythonchick_backend/internal/model"
	"pythonchick_backend/internal/repository"
	"pythonchick_backend/internal/util"
)

// ContentService 课程目录只读视图，userID 为 0 表示匿名
type ContentService struct {
	ContentRepo  *repository.ContentRepository
	ProgressRepo *repository.ProgressRepository
}

func NewContentService(contentRepo *repository.ContentRepository, progressRepo *repository.ProgressRepository) *ContentService {
	return &ContentService{ContentRepo: contentRepo, ProgressRepo: progressRepo}
}

type CourseSummary struct {
	model.Course
	TotalTopics     int `json:"total_topics"`
	CompletedTopics int `json:"completed_topics"`
}

type TopicSummary struct {
	model.Topic
	TotalLessons     int  `json:"total_lessons"`
	CompletedLessons int  `json:"completed_lessons"`
	IsCompleted      bool `json:"is_completed"`
}

type CourseDetail struct {
	model.Course
	Topics []TopicSummary `json:"topics"`
}

type LessonSummary struct {
	model.Lesson
	IsCompleted bool `json:"is_completed"`
}

type TopicDetail struct {
	model.Topic
	Lessons []LessonSummary `json:"lessons"`
}

func (s *ContentService) ListCourses(userID uint) ([]CourseSummary, error) {
	courses, err := s.ContentRepo.ListCourses()
	if err != nil {
		return nil, err
	}
	out := make([]CourseSummary, 0, len(courses))
	for _, c := range courses {
		topics, err := s.topicSummaries(c.ID, userID)
		if err != nil {
			return nil, err
		}
		sum := CourseSummary{Course: c, TotalTopics: len(topics)}
		for _, t := range topics {
			if t.IsCompleted {
				sum.CompletedTopics++
			}
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *ContentService) GetCourse(id, userID uint) (*CourseDetail, error) {
	course, err := s.ContentRepo.FindCourse(id)
	if err != nil {
		return nil, notFound(err, util.ErrCourseNotFound)
	}
	topics, err := s.topicSummaries(id, userID)
	if err != nil {
		return nil, err
	}
	return &CourseDetail{Course: *course, Topics: topics}, nil
}

func (s *ContentService) GetTopic(id, userID uint) (*TopicDetail, error) {
	topic, err := s.ContentRepo.FindTopic(id)
	if err != nil {
		return nil, notFound(err, util.ErrTopicNotFound)
	}
	lessons, err := s.ContentRepo.ListLessonsByTopic(id)
	if err != nil {
		return nil, err
	}
	done, err := s.completed(userID, lessons)
	if err != nil {
		return nil, err
	}

	detail := &TopicDetail{Topic: *topic, Lessons: make([]LessonSummary, 0, len(lessons))}
	for _, l := range lessons {
		detail.Lessons = append(detail.Lessons, LessonSummary{Lesson: l, IsCompleted: done[l.ID]})
	}
	return detail, nil
}

func (s *ContentService) GetLesson(id, userID uint) (*LessonSummary, error) {
	lesson, err := s.ContentRepo.FindLesson(id)
	if err != nil {
		return nil, notFound(err, util.ErrLessonNotFound)
	}
	if lesson.Type == model.LessonTypeQuiz {
		questions, err := s.ContentRepo.ListQuizQuestions(lesson.ID)
		if err != nil {
			return nil, err
		}
		lesson.QuizQuestions = questions
	}
	done, err := s.completed(userID, []model.Lesson{*lesson})
	if err != nil {
		return nil, err
	}
	return &LessonSummary{Lesson: *lesson, IsCompleted: done[lesson.ID]}, nil
}

func (s *ContentService) topicSummaries(courseID, userID uint) ([]TopicSummary, error) {
	topics, err := s.ContentRepo.ListTopicsByCourse(courseID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(topics))
	for i, t := range topics {
		ids[i] = t.ID
	}
	counts, err := s.ContentRepo.CountLessonsByTopic(ids)
	if err != nil {
		return nil, err
	}

	out := make([]TopicSummary, 0, len(topics))
	for _, t := range topics {
		sum := TopicSummary{Topic: t, TotalLessons: int(counts[t.ID])}
		if userID != 0 {
			n, err := s.ProgressRepo.CountCompletedInTopic(userID, t.ID)
			if err != nil {
				return nil, err
			}
			sum.CompletedLessons = int(n)
			sum.IsCompleted = sum.TotalLessons > 0 && sum.CompletedLessons >= sum.TotalLessons
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *ContentService) completed(userID uint, lessons []model.Lesson) (map[uint]bool, error) {
	if userID == 0 || len(lessons) == 0 {
		return map[uint]bool{}, nil
	}
	ids := make([]uint, len(lessons))
	for i, l := range lessons {
		ids[i] = l.ID
	}
	return s.ProgressRepo.CompletedLessonIDs(userID, ids)
}
