package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterBurstAndRefill(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(10, 20)
	rl.now = func() time.Time { return clock }

	for i := 0; i < 20; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d rejected inside burst", i)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("request past burst should be rejected")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("buckets must be per client")
	}

	clock = clock.Add(250 * time.Millisecond)
	for i := 0; i < 2; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("refilled token %d rejected", i)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("only 2.5 tokens should have been refilled")
	}

	clock = clock.Add(time.Hour)
	for i := 0; i < 20; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("refill must cap at burst, request %d rejected", i)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("refill exceeded burst")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1, 1)
	clock := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return clock }

	r := gin.New()
	r.Use(rl.RateLimitMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
}
