package repository

import (
	"pythonchick_backend/internal/model"

	"gorm.io/gorm"
)

// ContentRepository 课程、主题、课时的读取以及解锁
type ContentRepository struct {
	DB *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: db}
}

func (r *ContentRepository) WithTx(tx *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: tx}
}

func (r *ContentRepository) ListCourses() ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Order("order_index ASC").Find(&courses).Error
	return courses, err
}

func (r *ContentRepository) FindCourse(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, id).Error
	return &course, err
}

func (r *ContentRepository) FindTopic(id uint) (*model.Topic, error) {
	var topic model.Topic
	err := r.DB.First(&topic, id).Error
	return &topic, err
}

func (r *ContentRepository) FindLesson(id uint) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.First(&lesson, id).Error
	return &lesson, err
}

// ListQuizQuestions 题目与选项都按 order_index 排序
func (r *ContentRepository) ListQuizQuestions(lessonID uint) ([]model.QuizQuestion, error) {
	var questions []model.QuizQuestion
	err := r.DB.Where("lesson_id = ?", lessonID).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC, id ASC")
		}).
		Order("order_index ASC, id ASC").
		Find(&questions).Error
	return questions, err
}

func (r *ContentRepository) ListTopicsByCourse(courseID uint) ([]model.Topic, error) {
	var topics []model.Topic
	err := r.DB.Where("course_id = ?", courseID).Order("order_index ASC").Find(&topics).Error
	return topics, err
}

func (r *ContentRepository) ListLessonsByTopic(topicID uint) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.DB.Where("topic_id = ?", topicID).Order("order_index ASC").Find(&lessons).Error
	return lessons, err
}

func (r *ContentRepository) CountLessons(topicID uint) (int64, error) {
	var n int64
	err := r.DB.Model(&model.Lesson{}).Where("topic_id = ?", topicID).Count(&n).Error
	return n, err
}

// CountLessonsByTopic topic_id -> 课时数
func (r *ContentRepository) CountLessonsByTopic(topicIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(topicIDs))
	if len(topicIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		TopicID uint
		N       int64
	}
	err := r.DB.Model(&model.Lesson{}).
		Select("topic_id, COUNT(*) AS n").
		Where("topic_id IN ?", topicIDs).
		Group("topic_id").
		Scan(&rows).Error
	for _, row := range rows {
		out[row.TopicID] = row.N
	}
	return out, err
}

// NextTopic 同一课程中 order_index 更大的第一个主题
func (r *ContentRepository) NextTopic(courseID uint, orderIndex int) (*model.Topic, error) {
	var topic model.Topic
	err := r.DB.Where("course_id = ? AND order_index > ?", courseID, orderIndex).
		Order("order_index ASC").
		First(&topic).Error
	return &topic, err
}

func (r *ContentRepository) NextCourse(orderIndex int) (*model.Course, error) {
	var course model.Course
	err := r.DB.Where("order_index > ?", orderIndex).
		Order("order_index ASC").
		First(&course).Error
	return &course, err
}

func (r *ContentRepository) FirstTopic(courseID uint) (*model.Topic, error) {
	var topic model.Topic
	err := r.DB.Where("course_id = ?", courseID).
		Order("order_index ASC").
		First(&topic).Error
	return &topic, err
}

// UnlockTopic 只做 locked -> unlocked，返回是否真的发生了变化
func (r *ContentRepository) UnlockTopic(id uint) (bool, error) {
	res := r.DB.Model(&model.Topic{}).
		Where("id = ? AND is_locked = ?", id, true).
		Update("is_locked", false)
	return res.RowsAffected > 0, res.Error
}

func (r *ContentRepository) UnlockCourse(id uint) (bool, error) {
	res := r.DB.Model(&model.Course{}).
		Where("id = ? AND is_locked = ?", id, true).
		Update("is_locked", false)
	return res.RowsAffected > 0, res.Error
}

func (r *ContentRepository) CountCourses() (int64, error) {
	var n int64
	err := r.DB.Model(&model.Course{}).Count(&n).Error
	return n, err
}
