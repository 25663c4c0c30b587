package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/config"
)

func TestNotifySendsMarkdown(t *testing.T) {
	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("path = %s", r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		got <- string(b)
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	n := New(&config.NotifyConfig{BotToken: "TOKEN", ChatID: "42", APIURL: srv.URL}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	n.Notify(ctx, "*deployed*")
	cancel()

	select {
	case body := <-got:
		for _, want := range []string{`"chat_id":"42"`, `"text":"*deployed*"`, `"parse_mode":"Markdown"`} {
			if !strings.Contains(body, want) {
				t.Errorf("body %s missing %s", body, want)
			}
		}
	case <-time.After(3 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestNotifyFailureDoesNotPanic(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		close(done)
	}))
	defer srv.Close()

	n := New(&config.NotifyConfig{BotToken: "T", ChatID: "1", APIURL: srv.URL}, zerolog.Nop())
	n.Notify(context.Background(), "hello")

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("request not attempted")
	}
}

func TestNotifyDisabled(t *testing.T) {
	n := New(&config.NotifyConfig{}, zerolog.Nop())
	n.Notify(context.Background(), "dropped")
}
