package config

import (
	"github.com/andrew-solarstorm/go-packages/common"
)

type StorageConfig struct {
	// DBPath is the path to the BoltDB journal file.
	// Default: "./data/liquidity-agent.db"
	DBPath string

	// Enabled controls whether executions and deployments are journaled to disk.
	// Default: true
	Enabled bool
}

func (c *StorageConfig) Key() string {
	return STORAGE_CONFIG_KEY
}

func (c *StorageConfig) Load() error {
	c.DBPath = common.GetEnvOrDefault("JOURNAL_DB_PATH", "./data/liquidity-agent.db")
	c.Enabled = common.GetEnvOrDefault("JOURNAL_ENABLED", "true") == "true"
	return nil
}

func (c *StorageConfig) Validate() error {
	return nil
}
