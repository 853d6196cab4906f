package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"pythonchick_backend/internal/config"
	"pythonchick_backend/internal/repository"
	"pythonchick_backend/internal/util"
	"pythonchick_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	resetTokenLength = 32
	resetKeyPrefix   = "password_reset:"
)

var ErrTokenMissing = errors.New("token not found")

// TokenStore 带过期的键值存储
type TokenStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type RedisTokenStore struct {
	Client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{Client: client}
}

func (s *RedisTokenStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.Client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisTokenStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenMissing
	}
	return v, err
}

func (s *RedisTokenStore) Delete(ctx context.Context, key string) error {
	return s.Client.Del(ctx, key).Err()
}

type Mailer interface {
	SendPasswordReset(ctx context.Context, to, username, token string) error
}

// LogMailer 未配置 SMTP 时使用，只写日志
type LogMailer struct{}

func (LogMailer) SendPasswordReset(ctx context.Context, to, username, token string) error {
	logger.Log.Info("password reset token issued",
		zap.String("email", to),
		zap.String("username", username),
		zap.String("token", token))
	return nil
}

type SMTPMailer struct {
	Cfg config.MailConfig
}

func (m SMTPMailer) SendPasswordReset(ctx context.Context, to, username, token string) error {
	body := fmt.Sprintf("Hi %s,\r\n\r\nUse this code to reset your Pythonchick password: %s\r\nThe code expires soon, so use it right away.\r\n", username, token)
	msg := strings.Join([]string{
		"From: " + m.Cfg.From,
		"To: " + to,
		"Subject: Reset your Pythonchick password",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.Cfg.Host, m.Cfg.Port)
	auth := smtp.PlainAuth("", m.Cfg.Username, m.Cfg.Password, m.Cfg.Host)
	return smtp.SendMail(addr, auth, m.Cfg.From, []string{to}, []byte(msg))
}

func NewMailer(cfg config.MailConfig) Mailer {
	if cfg.Host == "" {
		return LogMailer{}
	}
	return SMTPMailer{Cfg: cfg}
}

type PasswordResetService struct {
	UserRepo *repository.UserRepository
	Store    TokenStore
	Mailer   Mailer
	TTL      time.Duration
}

func NewPasswordResetService(userRepo *repository.UserRepository, store TokenStore, mailer Mailer, ttl time.Duration) *PasswordResetService {
	return &PasswordResetService{UserRepo: userRepo, Store: store, Mailer: mailer, TTL: ttl}
}

// RequestReset 邮箱不存在时同样返回 nil，不暴露账号是否存在
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.UserRepo.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	} else if err != nil {
		return err
	}

	token, err := util.RandomToken(resetTokenLength)
	if err != nil {
		return err
	}
	if err := s.Store.Set(ctx, resetKeyPrefix+email, token, s.TTL); err != nil {
		return err
	}
	return s.Mailer.SendPasswordReset(ctx, email, user.Username, token)
}

func (s *PasswordResetService) VerifyToken(ctx context.Context, email, token string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	stored, err := s.Store.Get(ctx, resetKeyPrefix+email)
	if errors.Is(err, ErrTokenMissing) {
		return util.ErrInvalidResetToken
	} else if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return util.ErrInvalidResetToken
	}
	return nil
}

// ResetPassword 成功后令牌立即作废
func (s *PasswordResetService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	if err := s.VerifyToken(ctx, email, token); err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.UserRepo.FindByEmail(email)
	if err != nil {
		return notFound(err, util.ErrUserNotFound)
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.UserRepo.UpdatePassword(user.ID, hash); err != nil {
		return err
	}
	return s.Store.Delete(ctx, resetKeyPrefix+email)
}
