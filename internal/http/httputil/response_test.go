package httputil

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/domain"
)

func record(write func(c *gin.Context)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	write(c)
	return w
}

func TestSuccessAndBadRequest(t *testing.T) {
	w := record(func(c *gin.Context) { Success(c, map[string]int{"n": 1}) })
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":true`) {
		t.Errorf("success = %d %s", w.Code, w.Body.String())
	}

	w = record(func(c *gin.Context) { BadRequest(c, "missing pool") })
	body := w.Body.String()
	if w.Code != http.StatusBadRequest || !strings.Contains(body, `"status":"InputValidation"`) ||
		!strings.Contains(body, "missing pool") {
		t.Errorf("bad request = %d %s", w.Code, body)
	}
}

func TestFailUsesErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("amount: %w", domain.ErrInputValidation), http.StatusBadRequest},
		{domain.ErrNoPositions, http.StatusNotFound},
		{fmt.Errorf("split: %w", domain.ErrInsufficientInput), http.StatusUnprocessableEntity},
		{domain.ErrQuoteUnavailable, http.StatusBadGateway},
		{domain.ErrKeyUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := record(func(c *gin.Context) { Fail(c, tt.err, nil) })
		if w.Code != tt.code {
			t.Errorf("Fail(%v) = %d, want %d", tt.err, w.Code, tt.code)
		}
		if strings.Contains(w.Body.String(), `"success":true`) {
			t.Errorf("Fail(%v) reported success", tt.err)
		}
	}
}
