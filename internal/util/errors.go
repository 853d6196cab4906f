package util

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailRegistered   = errors.New("email already registered")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrUserInactive      = errors.New("user is inactive")

	ErrCourseNotFound    = errors.New("course not found")
	ErrTopicNotFound     = errors.New("topic not found")
	ErrLessonNotFound    = errors.New("lesson not found")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrGameNotFound      = errors.New("game not found")

	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	ErrPermissionDenied  = errors.New("permission denied")
)
