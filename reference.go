package solpay

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// defaultFindLimit is the signature page size requested from the RPC node,
// which is also the node-side maximum.
const defaultFindLimit = 1000

// NewReference returns a fresh random public key to attach to a transfer as
// a reference. The key never signs anything and holds no funds; it exists
// only so FindReference can locate the paying transaction later.
func NewReference() (solana.PublicKey, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("generate reference key: %w", err)
	}
	return key.PublicKey(), nil
}

// FindReferenceOpts tunes a FindReference search. The zero value searches
// the most recent page of signatures at the client's commitment.
type FindReferenceOpts struct {
	// Until stops the search at (and excluding) this signature. Pass the
	// previously found signature to only surface newer payments.
	Until solana.Signature

	// Limit caps the signature page fetched from the node. Values <= 0
	// use the node maximum of 1000.
	Limit int

	// Commitment overrides the client's commitment for this search.
	Commitment rpc.CommitmentType
}

// FindReference returns the oldest confirmed signature whose transaction
// includes reference as an account key. Signatures come back from the node
// newest first, so the last entry of the page is the first payment made
// against the reference; that is the one a merchant waiting on a checkout
// wants. ErrReferenceNotFound means no transaction includes the key yet.
func (c *Client) FindReference(ctx context.Context, reference solana.PublicKey, opts *FindReferenceOpts) (*rpc.TransactionSignature, error) {
	if opts == nil {
		opts = &FindReferenceOpts{}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultFindLimit
	}
	commitment := opts.Commitment
	if commitment == "" {
		commitment = c.commitment
	}

	c.logger.DebugContext(ctx, "searching for reference",
		"reference", reference.String(),
		"limit", limit,
		"commitment", string(commitment),
	)

	start := time.Now()
	signatures, err := c.rpc.GetSignaturesForAddress(ctx, reference, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Until:      opts.Until,
		Commitment: commitment,
	})
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall("GetSignaturesForAddress", status, c.endpoint, duration)
	}

	if err != nil {
		return nil, fmt.Errorf("get signatures for %s: %w", reference, err)
	}
	if c.metrics != nil {
		c.metrics.RecordRPCSignaturesPerCall(c.endpoint, float64(len(signatures)))
	}
	if len(signatures) == 0 {
		return nil, ErrReferenceNotFound
	}

	oldest := signatures[len(signatures)-1]
	c.logger.DebugContext(ctx, "found reference",
		"reference", reference.String(),
		"signature", oldest.Signature.String(),
		"slot", oldest.Slot,
	)
	return oldest, nil
}
