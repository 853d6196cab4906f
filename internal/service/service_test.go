package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"pythonchick_backend/internal/config"
	"pythonchick_backend/internal/model"
	"pythonchick_backend/internal/repository"
	"pythonchick_backend/internal/sandbox"
	"pythonchick_backend/pkg/database"
	"pythonchick_backend/pkg/logger"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	DB          *gorm.DB
	Executor    *fakeExecutor
	Progression *ProgressionService
	Challenges  *ChallengeService
	Games       *GameService
	Content     *ContentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvAt(t, ":memory:")
}

// newTestEnvAt path 为 sqlite 文件时可跨 goroutine 共享同一个库
func newTestEnvAt(t *testing.T, path string) *testEnv {
	t.Helper()
	logger.InitNop()

	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Path: path}, gormlogger.Silent)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	contentRepo := repository.NewContentRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	progression := NewProgressionService(db, userRepo, contentRepo, progressRepo, activityRepo)
	progression.Now = func() time.Time { return testNow }

	exec := &fakeExecutor{results: map[string]sandbox.ExecutionResult{}}
	return &testEnv{
		DB:          db,
		Executor:    exec,
		Progression: progression,
		Challenges:  NewChallengeService(db, repository.NewChallengeRepository(db), NewExecutionService(exec), progression),
		Games:       NewGameService(db, repository.NewGameRepository(db), progression),
		Content:     NewContentService(contentRepo, progressRepo),
	}
}

func (e *testEnv) mustCreate(t *testing.T, v interface{}) {
	t.Helper()
	if err := e.DB.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func (e *testEnv) newUser(t *testing.T, name string) *model.User {
	t.Helper()
	u := model.NewUser(name, name+"@example.com", "x", "")
	e.mustCreate(t, u)
	return u
}

func (e *testEnv) reloadUser(t *testing.T, id uint) *model.User {
	t.Helper()
	var u model.User
	if err := e.DB.First(&u, id).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return &u
}

// fakeExecutor 按源码返回预设结果，未命中时视为成功且无输出
type fakeExecutor struct {
	mu      sync.Mutex
	results map[string]sandbox.ExecutionResult
	calls   int
}

func (f *fakeExecutor) on(code string, res sandbox.ExecutionResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[code] = res
}

func (f *fakeExecutor) Execute(ctx context.Context, code string, expected *string, timeout time.Duration) sandbox.ExecutionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	res, ok := f.results[code]
	if !ok {
		res = sandbox.ExecutionResult{Success: true}
	}
	res.ExecutionID = "test"
	if expected != nil {
		m := res.Success && sandbox.Matches(res.Output, *expected)
		res.MatchesExpected = &m
	}
	return res
}

type memTokenStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{data: map[string]string{}}
}

func (s *memTokenStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memTokenStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", ErrTokenMissing
	}
	return v, nil
}

func (s *memTokenStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

type captureMailer struct {
	to, token string
}

func (m *captureMailer) SendPasswordReset(ctx context.Context, to, username, token string) error {
	m.to = to
	m.token = token
	return nil
}
