package config

import (
	"errors"
	"os"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

// AggregatorConfig configures the swap-aggregator (Jupiter) client.
type AggregatorConfig struct {
	// BaseURL is the swap API root; quote and swap paths are appended.
	// Default: "https://lite-api.jup.ag/swap/v1"
	BaseURL string

	APIKey string

	// QuoteValidity is how long a quote may be used to build a transaction.
	// Default: 30s
	QuoteValidity time.Duration

	// PriorityMaxLamports caps the priority fee requested from the swap endpoint.
	PriorityMaxLamports uint64
	PriorityLevel       string

	RequestTimeout time.Duration
}

func (c *AggregatorConfig) Key() string {
	return AGGREGATOR_CONFIG_KEY
}

func (c *AggregatorConfig) Load() error {
	c.BaseURL = common.GetEnvOrDefault("JUPITER_BASE_URL", "https://lite-api.jup.ag/swap/v1")
	c.APIKey = os.Getenv("JUPITER_API_KEY")
	c.QuoteValidity = time.Duration(common.GetEnvOrDefaultInt("QUOTE_VALIDITY_SEC", 30)) * time.Second
	c.PriorityMaxLamports = uint64(common.GetEnvOrDefaultInt("PRIORITY_MAX_LAMPORTS", 1_000_000))
	c.PriorityLevel = common.GetEnvOrDefault("PRIORITY_LEVEL", "veryHigh")
	c.RequestTimeout = time.Duration(common.GetEnvOrDefaultInt("AGGREGATOR_TIMEOUT_SEC", 10)) * time.Second
	return c.Validate()
}

func (c *AggregatorConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("invalid aggregator config: empty base url")
	}
	if c.QuoteValidity <= 0 {
		return errors.New("invalid aggregator config: quote validity must be positive")
	}
	return nil
}
