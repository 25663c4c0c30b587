package config

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLiquidityConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LiquidityConfig
		wantErr bool
	}{
		{"defaults", LiquidityConfig{FeeReserve: decimal.RequireFromString("0.0575"), BinHalfWidth: 10, DefaultSlippageBps: 50}, false},
		{"widest window", LiquidityConfig{BinHalfWidth: 34}, false},
		{"window too wide", LiquidityConfig{BinHalfWidth: 35}, true},
		{"negative half-width", LiquidityConfig{BinHalfWidth: -1}, true},
		{"negative reserve", LiquidityConfig{FeeReserve: decimal.NewFromInt(-1)}, true},
		{"slippage above 100%", LiquidityConfig{DefaultSlippageBps: 10_001}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLiquidityConfigLoadRejectsBadValues(t *testing.T) {
	t.Setenv("FEE_RESERVE_SOL", "lots")
	if err := (&LiquidityConfig{}).Load(); err == nil {
		t.Error("expected an error for a non-numeric fee reserve")
	}

	t.Setenv("FEE_RESERVE_SOL", "0.05")
	t.Setenv("DLMM_PROGRAM_ID", "not-a-key")
	if err := (&LiquidityConfig{}).Load(); err == nil {
		t.Error("expected an error for an invalid program id")
	}
}

func TestGeneralConfigValidate(t *testing.T) {
	if err := (&GeneralConfig{HTTPPort: "8080", HTTPHost: "localhost", Env: DevEnv}).Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
	if err := (&GeneralConfig{HTTPHost: "localhost", Env: DevEnv}).Validate(); err == nil {
		t.Error("missing port accepted")
	}
}
