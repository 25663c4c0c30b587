// Package common contains common constants and variables used across services
package common

import "github.com/gagliardetto/solana-go"

var (
	TokenProgramID  = solana.TokenProgramID
	Token2022ID     = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	MemoProgramID   = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
	ATAProgramID    = solana.SPLAssociatedTokenAccountProgramID
	SystemProgramID = solana.SystemProgramID
	RentSysvarID    = solana.SysVarRentPubkey

	// NativeMint is the wrapped SOL mint; the native asset is quoted and deposited through it.
	NativeMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	USDCMint   = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	USDTMint   = solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB")
)

const (
	NativeDecimals   = 9
	LamportsPerSOL   = 1_000_000_000
	USDCDecimals     = 6
	BasisPointMax    = 10_000
	DefaultSlippage  = 50
	DefaultDecimals  = 6
	SolscanTxBaseURL = "https://solscan.io/tx/"
)
