package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"peer-feedback/backend/config"
	"peer-feedback/backend/internal/api/handler"
	"peer-feedback/backend/internal/service"
	"peer-feedback/backend/pkg/jwt"
	"peer-feedback/backend/pkg/metrics"
)

func newEngine(t *testing.T) (*jwt.Manager, http.Handler) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Port: 8080, MaxBodyBytes: 1 << 20},
		Auth:   config.AuthConfig{JWTSecret: "router-test-secret-key", AccessTokenTTL: time.Minute},
	}
	mgr := jwt.NewManager(&cfg.Auth)
	h := handler.NewHandler(&service.Service{}, nil, zap.NewNop())
	return mgr, Setup(Deps{
		Config:  cfg,
		Handler: h,
		JWT:     mgr,
		Metrics: metrics.NewCascadeMetrics().Handler(),
		Logger:  zap.NewNop(),
	})
}

func do(engine http.Handler, method, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	engine.ServeHTTP(w, req)
	return w
}

func TestSetup_PublicEndpoints(t *testing.T) {
	_, engine := newEngine(t)

	if w := do(engine, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("/health 期望 200，实际=%d", w.Code)
	}
	if w := do(engine, http.MethodGet, "/metrics", ""); w.Code != http.StatusOK {
		t.Errorf("/metrics 期望 200，实际=%d", w.Code)
	}
}

func TestSetup_AuthAndScope(t *testing.T) {
	mgr, engine := newEngine(t)

	if w := do(engine, http.MethodGet, "/api/v1/courses/course1/questions/qn1/responses", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("未认证期望 401，实际=%d", w.Code)
	}

	token, err := mgr.GenerateAccessToken("student1@gmail.tmt", "student", "course1")
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}
	if w := do(engine, http.MethodGet, "/api/v1/courses/course2/questions/qn1/responses", token); w.Code != http.StatusForbidden {
		t.Errorf("跨课程期望 403，实际=%d", w.Code)
	}
	if w := do(engine, http.MethodPost, "/api/v1/courses/course1/enrollments", token); w.Code != http.StatusForbidden {
		t.Errorf("学生调用名册级联期望 403，实际=%d", w.Code)
	}
}
