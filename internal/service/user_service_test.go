package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pythonchick_backend/internal/model"
	"pythonchick_backend/internal/repository"
	"pythonchick_backend/internal/util"
)

func newUserService(env *testEnv, root string) *UserService {
	return NewUserService(
		repository.NewUserRepository(env.DB),
		repository.NewActivityRepository(env.DB),
		&StorageService{Provider: &LocalStorageProvider{Root: root}},
	)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env, t.TempDir())
	ada := env.newUser(t, "ada")
	env.newUser(t, "bob")

	name := "  Ada Lovelace "
	email := " ADA.L@Example.com"
	got, err := svc.UpdateProfile(ada.ID, UpdateProfileInput{FullName: &name, Email: &email})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.FullName != "Ada Lovelace" || got.Email != "ada.l@example.com" {
		t.Fatalf("update: got=%q %q", got.FullName, got.Email)
	}

	taken := "bob@example.com"
	if _, err := svc.UpdateProfile(ada.ID, UpdateProfileInput{Email: &taken}); !errors.Is(err, util.ErrEmailRegistered) {
		t.Fatalf("email conflict: want=%v got=%v", util.ErrEmailRegistered, err)
	}
	if _, err := svc.GetUser(9999); !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("missing user: want=%v got=%v", util.ErrUserNotFound, err)
	}
}

func TestUploadAvatarLocal(t *testing.T) {
	env := newTestEnv(t)
	root := t.TempDir()
	svc := newUserService(env, root)
	ada := env.newUser(t, "ada")

	got, err := svc.UploadAvatar(context.Background(), ada.ID, "Me.PNG", strings.NewReader("png-bytes"), 9, "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(got.AvatarURL, "/uploads/avatars/") || !strings.HasSuffix(got.AvatarURL, ".png") {
		t.Fatalf("avatar url: got=%q", got.AvatarURL)
	}

	data, err := os.ReadFile(filepath.Join(root, strings.TrimPrefix(got.AvatarURL, "/uploads/")))
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("stored file: got=%q err=%v", data, err)
	}
	if env.reloadUser(t, ada.ID).AvatarURL != got.AvatarURL {
		t.Fatal("avatar url not persisted")
	}
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	p := &LocalStorageProvider{Root: t.TempDir()}
	if _, err := p.Upload(context.Background(), "../escape.txt", strings.NewReader("x"), 1, "text/plain"); err == nil {
		t.Fatal("traversal key accepted")
	}
}

func TestRecentActivityLimit(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env, t.TempDir())
	ada := env.newUser(t, "ada")

	for i := 0; i < 25; i++ {
		env.mustCreate(t, &model.UserActivity{UserID: ada.ID, ActivityType: model.ActivityLessonCompleted, XPEarned: i})
	}

	list, err := svc.RecentActivity(ada.ID, 0)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if len(list) != 20 {
		t.Fatalf("default limit: want=20 got=%d", len(list))
	}
	if list[0].XPEarned != 24 {
		t.Fatalf("newest first: want=24 got=%d", list[0].XPEarned)
	}

	list, _ = svc.RecentActivity(ada.ID, 5)
	if len(list) != 5 {
		t.Fatalf("explicit limit: want=5 got=%d", len(list))
	}
}
