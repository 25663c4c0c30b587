package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"value":42}`))
	}))
	defer srv.Close()

	var out struct {
		Value int `json:"value"`
	}
	_, err := New(2*time.Second, 2).GetJSON(context.Background(), srv.URL, nil, &out)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out.Value != 42 || calls.Load() != 2 {
		t.Errorf("value = %d after %d calls", out.Value, calls.Load())
	}
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad mint", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := New(2*time.Second, 3).GetJSON(context.Background(), srv.URL, nil, nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("error = %v, want 400 StatusError", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestPostJSONSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" || r.Header.Get("x-api-key") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := New(time.Second, 0).PostJSON(context.Background(), srv.URL, map[string]string{"a": "b"}, map[string]string{"x-api-key": "k"}, nil)
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
}
