package events

import (
	"time"

	"github.com/gagliardetto/solana-go/rpc"

	"github.com/brojonat/solpay"
)

// PaymentEvent represents a settled payment published to NATS.
// This is published to the subject "payments.{reference}" in JetStream.
type PaymentEvent struct {
	// Transaction identifiers
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`

	// Payment details
	Reference string `json:"reference"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`               // Display units (SOL or whole tokens)
	TokenMint string `json:"token_mint,omitempty"` // Empty for native SOL
	Memo      string `json:"memo,omitempty"`

	// Timing information
	BlockTime time.Time `json:"block_time,omitempty"`

	// Metadata
	PublishedAt time.Time `json:"published_at"`
}

// FromValidatedTransfer converts a payment found by AwaitTransfer into a
// PaymentEvent for publishing.
func FromValidatedTransfer(params solpay.AwaitParams, sig *rpc.TransactionSignature) *PaymentEvent {
	event := &PaymentEvent{
		Signature:   sig.Signature.String(),
		Slot:        sig.Slot,
		Reference:   params.Reference.String(),
		Recipient:   params.Recipient.String(),
		Amount:      params.Amount.String(),
		Memo:        params.Memo,
		PublishedAt: time.Now().UTC(),
	}

	if params.TokenMint != nil {
		event.TokenMint = params.TokenMint.String()
	}
	if sig.BlockTime != nil {
		event.BlockTime = sig.BlockTime.Time()
	}

	return event
}
