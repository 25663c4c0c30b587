package config

import (
	"os"

	"github.com/andrew-solarstorm/go-packages/common"
)

// NotifyConfig configures the Telegram notification sink. Empty BotToken disables it.
type NotifyConfig struct {
	BotToken string
	ChatID   string
	APIURL   string
}

func (c *NotifyConfig) Key() string {
	return NOTIFY_CONFIG_KEY
}

func (c *NotifyConfig) Load() error {
	c.BotToken = os.Getenv("BOT_TOKEN")
	c.ChatID = os.Getenv("AGENT_TG_ID")
	c.APIURL = common.GetEnvOrDefault("TELEGRAM_API_URL", "https://api.telegram.org")
	return nil
}

func (c *NotifyConfig) Validate() error {
	return nil
}

func (c *NotifyConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != ""
}
