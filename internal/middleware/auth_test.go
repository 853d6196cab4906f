package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pythonchick_backend/internal/config"
	"pythonchick_backend/internal/model"
	"pythonchick_backend/internal/util"

	"github.com/gin-gonic/gin"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "middleware-secret"
	return cfg
}

func newRouter(cfg *config.Config, mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUserID(c)})
	})
	return r
}

func token(t *testing.T, cfg *config.Config, id uint) string {
	t.Helper()
	u := &model.User{Username: "ada"}
	u.ID = id
	tok, err := util.GenerateJWT(u, cfg.JWT.Secret, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok
}

func do(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if auth != "" {
		req.Header.Set("Authorization", "Bearer "+auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	r := newRouter(cfg, AuthMiddleware(cfg))

	if w := do(r, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: want=401 got=%d", w.Code)
	}
	if w := do(r, "garbage"); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: want=401 got=%d", w.Code)
	}
	w := do(r, token(t, cfg, 7))
	if w.Code != http.StatusOK || w.Body.String() != `{"id":7}` {
		t.Fatalf("valid token: code=%d body=%s", w.Code, w.Body.String())
	}
}

func TestTryAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	r := newRouter(cfg, TryAuthMiddleware(cfg))

	if w := do(r, "garbage"); w.Code != http.StatusOK || w.Body.String() != `{"id":0}` {
		t.Fatalf("bad token: code=%d body=%s", w.Code, w.Body.String())
	}
	if w := do(r, token(t, cfg, 3)); w.Body.String() != `{"id":3}` {
		t.Fatalf("valid token: body=%s", w.Body.String())
	}
}

type lastSeenRecorder struct {
	ids chan uint
}

func (r *lastSeenRecorder) UpdateLastSeen(id uint) error {
	r.ids <- id
	return nil
}

func TestActivityMiddleware(t *testing.T) {
	cfg := testConfig()
	rec := &lastSeenRecorder{ids: make(chan uint, 1)}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", AuthMiddleware(cfg), ActivityMiddleware(rec), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	do(r, token(t, cfg, 11))

	select {
	case id := <-rec.ids:
		if id != 11 {
			t.Fatalf("last seen: want=11 got=%d", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("last seen was never updated")
	}
}
