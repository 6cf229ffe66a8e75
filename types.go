package solpay

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Memo program IDs
var (
	// MemoProgramIDSPL is the SPL Memo program (what wallets emit today)
	MemoProgramIDSPL = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

	// MemoProgramIDLegacy is the legacy memo program (v1), still seen in older transactions
	MemoProgramIDLegacy = solana.MustPublicKeyFromBase58("Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo")
)

// SOLDecimals is the decimal precision of the native currency: one SOL is
// 1e9 lamports.
const SOLDecimals = 9

// TransferRequest describes a payment: who gets paid, how much, and in what.
// Amount is denominated in whole units (SOL or whole tokens), not base units.
// A nil TokenMint means native SOL. The request is a plain value; CreateTransfer
// never modifies it.
type TransferRequest struct {
	// Recipient receives the transfer (the wallet address for SOL, the ATA
	// owner for tokens).
	Recipient solana.PublicKey

	// Amount in whole units. Converted to lamports or token base units
	// during the build, using the mint's decimals.
	Amount decimal.Decimal

	// TokenMint selects an SPL token transfer. Nil means native SOL.
	TokenMint *solana.PublicKey

	// References are appended to the transfer instruction as read-only
	// non-signer keys, in order, so indexers can locate the payment later.
	References []solana.PublicKey

	// Memo is attached as a memo-program instruction when non-empty.
	Memo string

	// FeePayer overrides the transaction fee payer. Nil means the sender pays.
	FeePayer *solana.PublicKey
}

// Transaction is an assembled, unsigned transfer transaction together with
// the blockhash validity window it was built against. Signing and submission
// are the caller's responsibility.
type Transaction struct {
	Tx                   *solana.Transaction
	FeePayer             solana.PublicKey
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// Base64 returns the wire-encoded unsigned transaction, ready to be handed to
// a signer.
func (t *Transaction) Base64() (string, error) {
	return t.Tx.ToBase64()
}
