package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func testApp() *App {
	return &App{
		StartTime:      time.Now(),
		RateLimitRPS:   1,
		RateLimitBurst: 2,
		RateLimiterTTL: time.Hour,
		LimiterMap:     make(map[string]*RateLimiterWithTime),
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app := testApp()

	router := gin.New()
	router.POST("/limited", app.rateLimitMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/limited", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Errorf("first requests within burst = %v, want 200s", statuses[:2])
	}
	if statuses[3] != http.StatusTooManyRequests {
		t.Errorf("request beyond burst = %d, want 429", statuses[3])
	}
}

func TestGetLimiterReusesPerKey(t *testing.T) {
	app := testApp()

	first := app.getLimiter("10.0.0.1")
	second := app.getLimiter("10.0.0.1")
	other := app.getLimiter("10.0.0.2")

	if first != second {
		t.Error("same key must share one limiter")
	}
	if first == other {
		t.Error("distinct keys must not share a limiter")
	}
	if len(app.LimiterMap) != 2 {
		t.Errorf("limiter map size = %d, want 2", len(app.LimiterMap))
	}
}

func TestCleanupStaleRateLimiters(t *testing.T) {
	app := testApp()
	app.getLimiter("10.0.0.1")
	app.LimiterMap["10.0.0.1"].LastAccess = time.Now().Add(-2 * time.Hour)
	app.getLimiter("10.0.0.2")

	app.cleanupStaleRateLimiters()

	if _, ok := app.LimiterMap["10.0.0.1"]; ok {
		t.Error("stale limiter not removed")
	}
	if _, ok := app.LimiterMap["10.0.0.2"]; !ok {
		t.Error("fresh limiter removed")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(requestIDMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	router.ServeHTTP(w, req)
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("request id not generated")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-Id"); got != "fixed-id" {
		t.Errorf("request id = %q, want propagation of fixed-id", got)
	}
}
