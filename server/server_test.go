package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/slotpipe/component"
	"github.com/kbukum/slotpipe/errors"
	"github.com/kbukum/slotpipe/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() Config {
	return Config{Host: "127.0.0.1", Port: 0, ReadTimeout: 5, WriteTimeout: 5, IdleTimeout: 5}
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON from %s: %v (%s)", path, err, rec.Body.String())
	}
	return rec, body
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Host != "127.0.0.1" || cfg.Port != 8080 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}

	bad := Config{Port: 70000}
	if err := bad.Validate(); !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG for port 70000, got %v", err)
	}
}

func TestDefaultEndpoints(t *testing.T) {
	s := New(testConfig(), logger.Nop())
	health := []component.Health{{Name: "slotcat", Status: component.StatusHealthy}}
	s.ApplyDefaults("slotcat",
		func(context.Context) []component.Health { return health },
		func(context.Context) (any, error) { return map[string]int{"delivered": 5}, nil },
	)

	rec, body := get(t, s.GinEngine(), "/health")
	if rec.Code != http.StatusOK || body["status"] != "healthy" {
		t.Errorf("expected healthy 200, got %d %v", rec.Code, body)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("expected request id header")
	}

	rec, body = get(t, s.GinEngine(), "/alive")
	if rec.Code != http.StatusOK || body["status"] != "alive" {
		t.Errorf("expected alive, got %d %v", rec.Code, body)
	}

	rec, body = get(t, s.GinEngine(), "/status")
	data, _ := body["data"].(map[string]any)
	if rec.Code != http.StatusOK || data["delivered"] != float64(5) {
		t.Errorf("expected status data, got %d %v", rec.Code, body)
	}
}

func TestHealthUnhealthy(t *testing.T) {
	s := New(testConfig(), logger.Nop())
	s.ApplyDefaults("slotcat", func(context.Context) []component.Health {
		return []component.Health{
			{Name: "slotcat", Status: component.StatusUnhealthy, Message: "TRANSFORM_FAILED"},
		}
	}, nil)

	rec, body := get(t, s.GinEngine(), "/health")
	if rec.Code != http.StatusServiceUnavailable || body["status"] != "unhealthy" {
		t.Errorf("expected unhealthy 503, got %d %v", rec.Code, body)
	}
}

func TestStatusError(t *testing.T) {
	s := New(testConfig(), logger.Nop())
	s.ApplyDefaults("slotcat", nil, func(context.Context) (any, error) {
		return nil, errors.NotStarted("slotcat")
	})

	rec, body := get(t, s.GinEngine(), "/status")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
	errBody, _ := body["error"].(map[string]any)
	if errBody["code"] != string(errors.ErrCodeNotStarted) {
		t.Errorf("expected NOT_STARTED body, got %v", body)
	}
}

func TestRecovery(t *testing.T) {
	s := New(testConfig(), logger.Nop())
	s.ApplyMiddleware()
	s.GinEngine().GET("/boom", func(*gin.Context) { panic("boom") })

	rec, body := get(t, s.GinEngine(), "/boom")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	errBody, _ := body["error"].(map[string]any)
	if errBody["code"] != string(errors.ErrCodeInternal) {
		t.Errorf("expected INTERNAL_ERROR body, got %v", body)
	}
}

func TestStartStopComponent(t *testing.T) {
	s := New(testConfig(), logger.Nop())
	s.ApplyDefaults("slotcat", nil, nil)
	c := NewComponent(s)

	if c.Health(context.Background()).Status != component.StatusUnhealthy {
		t.Error("expected unhealthy before start")
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if c.Health(context.Background()).Status != component.StatusHealthy {
		t.Error("expected healthy while serving")
	}

	resp, err := http.Get("http://" + s.Addr() + "/alive")
	if err != nil {
		t.Fatalf("GET /alive: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if c.Health(context.Background()).Status != component.StatusUnhealthy {
		t.Error("expected unhealthy after stop")
	}
	if d := c.Describe(); d.Type != "server" {
		t.Errorf("expected server description, got %+v", d)
	}
}

func TestStartBindError(t *testing.T) {
	first := New(testConfig(), logger.Nop())
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer first.Stop(context.Background())

	cfg := testConfig()
	second := New(cfg, logger.Nop())
	second.httpServer.Addr = first.Addr()
	if err := second.Start(context.Background()); err == nil {
		second.Stop(context.Background())
		t.Fatal("expected bind error on an address in use")
	}
}
