package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"pythonchick_backend/internal/model"
	"pythonchick_backend/internal/repository"
	"pythonchick_backend/internal/util"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService struct {
	UserRepo     *repository.UserRepository
	ActivityRepo *repository.ActivityRepository
	Storage      *StorageService
}

func NewUserService(userRepo *repository.UserRepository, activityRepo *repository.ActivityRepository, storage *StorageService) *UserService {
	return &UserService{UserRepo: userRepo, ActivityRepo: activityRepo, Storage: storage}
}

type UpdateProfileInput struct {
	FullName *string
	Email    *string
}

func (s *UserService) GetUser(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if err != nil {
		return nil, notFound(err, util.ErrUserNotFound)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(id uint, in UpdateProfileInput) (*model.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != user.Email {
			existing, err := s.UserRepo.FindByEmail(email)
			if err == nil && existing.ID != user.ID {
				return nil, util.ErrEmailRegistered
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			user.Email = email
		}
	}
	if err := s.UserRepo.Update(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrEmailRegistered
		}
		return nil, err
	}
	return user, nil
}

// UploadAvatar 文件名由服务端生成，原扩展名保留
func (s *UserService) UploadAvatar(ctx context.Context, id uint, filename string, r io.Reader, size int64, contentType string) (*model.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("avatars/%d/%s%s", id, uuid.NewString(), strings.ToLower(filepath.Ext(filename)))
	url, err := s.Storage.Upload(ctx, key, r, size, contentType)
	if err != nil {
		return nil, err
	}
	user.AvatarURL = url
	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) RecentActivity(id uint, limit int) ([]model.UserActivity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.ActivityRepo.ListByUser(id, limit)
}
