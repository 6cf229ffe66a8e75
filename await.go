package solpay

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

// defaultAwaitInterval paces the polling loop in AwaitTransfer.
const defaultAwaitInterval = 5 * time.Second

// AwaitParams describes the payment AwaitTransfer waits for. Reference is
// the key the paying transaction must carry; the remaining fields mirror
// ValidateParams and describe what that transaction must settle.
type AwaitParams struct {
	Reference solana.PublicKey

	Recipient solana.PublicKey
	Amount    decimal.Decimal
	TokenMint *solana.PublicKey

	// References lists additional keys beyond Reference that must appear
	// in the transaction.
	References []solana.PublicKey

	// Memo, when non-empty, must appear as a memo instruction with exactly
	// this data.
	Memo string

	// Interval paces the polling loop. Values <= 0 use the default 5s.
	Interval time.Duration

	// Commitment overrides the client's commitment for lookups.
	Commitment rpc.CommitmentType
}

// AwaitTransfer polls the chain until a transaction carrying params.Reference
// lands and settles the described payment, then returns its signature and the
// fetched transaction. A transaction that carries the reference but fails
// validation ends the wait immediately with the validation error and the
// offending signature, since on-chain history is final. The wait otherwise
// runs until ctx is done.
func (c *Client) AwaitTransfer(ctx context.Context, params AwaitParams) (*rpc.TransactionSignature, *rpc.GetTransactionResult, error) {
	interval := params.Interval
	if interval <= 0 {
		interval = defaultAwaitInterval
	}

	c.logger.InfoContext(ctx, "awaiting transfer",
		"reference", params.Reference.String(),
		"recipient", params.Recipient.String(),
		"amount", params.Amount.String(),
		"interval", interval.String(),
	)

	validateParams := ValidateParams{
		Recipient:  params.Recipient,
		Amount:     params.Amount,
		TokenMint:  params.TokenMint,
		References: append([]solana.PublicKey{params.Reference}, params.References...),
		Memo:       params.Memo,
		Commitment: params.Commitment,
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		sig, err := c.FindReference(ctx, params.Reference, &FindReferenceOpts{Commitment: params.Commitment})
		switch {
		case errors.Is(err, ErrReferenceNotFound):
			// Nothing on chain yet.
		case err != nil:
			c.logger.WarnContext(ctx, "reference search failed, will retry",
				"reference", params.Reference.String(),
				"error", err,
			)
		default:
			out, err := c.ValidateTransfer(ctx, sig.Signature, validateParams)
			var validateErr *ValidateTransferError
			switch {
			case err == nil:
				c.logger.InfoContext(ctx, "transfer arrived",
					"reference", params.Reference.String(),
					"signature", sig.Signature.String(),
					"slot", sig.Slot,
				)
				return sig, out, nil
			case errors.Is(err, ErrTransactionNotFound):
				// The signature list can run ahead of the transaction
				// lookup at a stricter commitment. Wait for it to land.
			case errors.As(err, &validateErr):
				return sig, nil, err
			default:
				c.logger.WarnContext(ctx, "transfer validation failed, will retry",
					"signature", sig.Signature.String(),
					"error", err,
				)
			}
		}

		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
