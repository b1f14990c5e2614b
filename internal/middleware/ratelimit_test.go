package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func limiterRouter(rate int, interval time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimiter(rate, interval).Middleware())
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r *gin.Engine, ip string) int {
	req := httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = ip + ":54321"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiterRejectsAboveRate(t *testing.T) {
	r := limiterRouter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if code := hit(r, "10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: status %d, want 200", i+1, code)
		}
	}
	if code := hit(r, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("request over the rate: status %d, want 429", code)
	}

	// A different IP has its own bucket.
	if code := hit(r, "10.0.0.2"); code != http.StatusOK {
		t.Errorf("fresh IP: status %d, want 200", code)
	}
}

func TestRateLimiterRefillsAfterInterval(t *testing.T) {
	r := limiterRouter(1, 30*time.Millisecond)

	if code := hit(r, "10.0.0.3"); code != http.StatusOK {
		t.Fatalf("first request: status %d, want 200", code)
	}
	if code := hit(r, "10.0.0.3"); code != http.StatusTooManyRequests {
		t.Fatalf("second request inside interval: status %d, want 429", code)
	}

	time.Sleep(50 * time.Millisecond)
	if code := hit(r, "10.0.0.3"); code != http.StatusOK {
		t.Errorf("request after refill interval: status %d, want 200", code)
	}
}
