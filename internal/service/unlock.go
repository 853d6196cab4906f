package service

import "pythonchick_backend/internal/model"

// CascadeState 判断解锁所需的全部事实，必须在写入的同一事务中读取
type CascadeState struct {
	TopicLessons   int64
	TopicCompleted int64
	// 同课程中的下一个主题，没有则为 nil
	NextTopic *model.Topic
	// 下一个课程及其第一个主题，仅在 NextTopic 为 nil 时参考
	NextCourse           *model.Course
	NextCourseFirstTopic *model.Topic
}

type UnlockPlan struct {
	TopicIDs  []uint
	CourseIDs []uint
}

func (p UnlockPlan) Empty() bool {
	return len(p.TopicIDs) == 0 && len(p.CourseIDs) == 0
}

// PlanUnlocks 主题内课时全部完成才触发：优先解锁同课程下一个主题，
// 否则解锁下一个课程的第一个主题。只返回当前仍处于锁定状态的实体
func PlanUnlocks(s CascadeState) UnlockPlan {
	var plan UnlockPlan
	if s.TopicLessons == 0 || s.TopicCompleted < s.TopicLessons {
		return plan
	}

	if s.NextTopic != nil {
		if s.NextTopic.IsLocked {
			plan.TopicIDs = append(plan.TopicIDs, s.NextTopic.ID)
		}
		return plan
	}

	if s.NextCourse == nil || s.NextCourseFirstTopic == nil {
		return plan
	}
	if s.NextCourse.IsLocked {
		plan.CourseIDs = append(plan.CourseIDs, s.NextCourse.ID)
	}
	if s.NextCourseFirstTopic.IsLocked {
		plan.TopicIDs = append(plan.TopicIDs, s.NextCourseFirstTopic.ID)
	}
	return plan
}
