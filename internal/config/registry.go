package config

import (
	"os"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

// RegistryConfig points at the external pool registry and the Meteora pair metadata API.
type RegistryConfig struct {
	RegistryURL string
	MeteoraURL  string

	// OwnerID is the registry identity (Telegram id) records are filed under.
	OwnerID string

	// PoolInfoTTL bounds how long static pool metadata (names, symbols) is cached.
	PoolInfoTTL time.Duration
}

func (c *RegistryConfig) Key() string {
	return REGISTRY_CONFIG_KEY
}

func (c *RegistryConfig) Load() error {
	c.RegistryURL = common.GetEnvOrDefault("POOL_REGISTRY_URL", "http://localhost:3000/api/agent")
	c.MeteoraURL = common.GetEnvOrDefault("METEORA_API_URL", "https://dlmm-api.meteora.ag")
	c.OwnerID = os.Getenv("AGENT_TG_ID")
	c.PoolInfoTTL = time.Duration(common.GetEnvOrDefaultInt("POOL_INFO_TTL_SEC", 600)) * time.Second
	return nil
}

func (c *RegistryConfig) Validate() error {
	return nil
}
