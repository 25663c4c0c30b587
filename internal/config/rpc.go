package config

import (
	"errors"
	"os"
	"slices"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

type RPCConfig struct {
	RPCUrl    string
	WSUrl     string
	RPCApiKey string

	// Commitment used when confirming submitted transactions.
	Commitment string

	// ConfirmTimeout bounds how long a submitted transaction is polled before ConfirmationTimeout.
	ConfirmTimeout time.Duration
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = os.Getenv("RPC_URL")
	r.WSUrl = os.Getenv("WS_URL")
	r.RPCApiKey = os.Getenv("RPC_KEY")
	r.Commitment = common.GetEnvOrDefault("COMMITMENT", "confirmed")
	r.ConfirmTimeout = time.Duration(common.GetEnvOrDefaultInt("CONFIRM_TIMEOUT_SEC", 60)) * time.Second
	return nil
}

func (r *RPCConfig) Validate() error {
	if r.RPCUrl == "" {
		return errors.New("invalid rpc config")
	}
	if !slices.Contains([]string{"processed", "confirmed", "finalized"}, r.Commitment) {
		return errors.New("invalid rpc commitment")
	}
	return nil
}
