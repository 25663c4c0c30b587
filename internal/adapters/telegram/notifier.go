// Package telegram delivers status messages through the Telegram bot API.
package telegram

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hxuan190/dlmm-liquidity-agent/internal/adapters/httpx"
	"github.com/hxuan190/dlmm-liquidity-agent/internal/config"
)

const sendTimeout = 5 * time.Second

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Notifier sends Markdown messages to one chat. Failures are logged and never returned.
type Notifier struct {
	http     *httpx.Client
	endpoint string
	chatID   string
	enabled  bool
	logger   zerolog.Logger
}

func New(cfg *config.NotifyConfig, logger zerolog.Logger) *Notifier {
	return &Notifier{
		http:     httpx.New(sendTimeout, 0),
		endpoint: cfg.APIURL + "/bot" + cfg.BotToken + "/sendMessage",
		chatID:   cfg.ChatID,
		enabled:  cfg.Enabled(),
		logger:   logger,
	}
}

// Notify sends message in the background, detached from the caller's cancellation.
func (n *Notifier) Notify(ctx context.Context, message string) {
	if !n.enabled {
		n.logger.Debug().Str("message", message).Msg("[Notifier] disabled, message dropped")
		return
	}
	go n.send(context.WithoutCancel(ctx), message)
}

func (n *Notifier) send(parent context.Context, message string) {
	ctx, cancel := context.WithTimeout(parent, sendTimeout)
	defer cancel()

	req := sendMessageRequest{ChatID: n.chatID, Text: message, ParseMode: "Markdown"}
	if _, err := n.http.PostJSON(ctx, n.endpoint, req, nil, nil); err != nil {
		n.logger.Warn().Err(err).Str("chat", n.chatID).Msg("[Notifier] failed to send message")
		return
	}
	n.logger.Debug().Str("chat", n.chatID).Msg("[Notifier] message sent")
}
