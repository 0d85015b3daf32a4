package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLimitedRouter(rps float64, burst int) *gin.Engine {
	rl := NewRateLimiter(rps, burst)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/p/:token", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return r
}

func previewRequest(r *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/p/some-token", nil)
	req.RemoteAddr = ip + ":51000"
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_AllowsWithinBurst(t *testing.T) {
	r := newLimitedRouter(10, 10)

	if code := previewRequest(r, "203.0.113.5"); code != http.StatusOK {
		t.Errorf("expected %d, got %d", http.StatusOK, code)
	}
}

func TestRateLimit_BlocksAfterBurst(t *testing.T) {
	r := newLimitedRouter(1, 2)

	var last int
	for i := 0; i < 5; i++ {
		last = previewRequest(r, "203.0.113.9")
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("expected %d after burst exhausted, got %d", http.StatusTooManyRequests, last)
	}
}

func TestRateLimit_PerClientBuckets(t *testing.T) {
	r := newLimitedRouter(1, 1)

	if code := previewRequest(r, "198.51.100.1"); code != http.StatusOK {
		t.Errorf("first client should pass, got %d", code)
	}
	// A different client keeps its own untouched bucket
	if code := previewRequest(r, "198.51.100.2"); code != http.StatusOK {
		t.Errorf("second client should pass, got %d", code)
	}
}
