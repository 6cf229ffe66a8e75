package solpay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

// ValidateParams describes the payment a confirmed transaction is expected
// to settle. Amount is in display units (SOL, or whole tokens for a mint).
type ValidateParams struct {
	Recipient solana.PublicKey
	Amount    decimal.Decimal

	// TokenMint selects the SPL token the payment should move. Nil means
	// native SOL.
	TokenMint *solana.PublicKey

	// References that must all appear among the transaction's account keys.
	References []solana.PublicKey

	// Memo, when non-empty, must appear as a memo instruction with exactly
	// this data.
	Memo string

	// Commitment overrides the client's commitment for the lookup.
	Commitment rpc.CommitmentType
}

// ValidateTransfer fetches the transaction behind signature and checks that
// it actually settled the described payment: it succeeded on chain, moved at
// least the expected amount to the recipient, carries every reference, and
// (when asked) the memo. Failures are *ValidateTransferError values; RPC
// transport failures come back wrapped.
//
// The fetched transaction is returned so callers can read its slot and
// block time without a second lookup.
func (c *Client) ValidateTransfer(ctx context.Context, signature solana.Signature, params ValidateParams) (*rpc.GetTransactionResult, error) {
	status := "error"
	defer func() {
		if c.metrics != nil {
			c.metrics.RecordValidation(status)
		}
	}()

	commitment := params.Commitment
	if commitment == "" {
		commitment = c.commitment
	}

	maxVersion := uint64(0)
	start := time.Now()
	out, err := c.rpc.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	duration := time.Since(start).Seconds()

	notFound := errors.Is(err, rpc.ErrNotFound)
	rpcStatus := "success"
	if err != nil && !notFound {
		rpcStatus = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall("GetTransaction", rpcStatus, c.endpoint, duration)
	}

	if notFound {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", signature, err)
	}
	if out == nil {
		return nil, ErrTransactionNotFound
	}

	meta := out.Meta
	if meta == nil {
		return nil, ErrTransactionMetaMissing
	}
	if meta.Err != nil {
		return nil, ErrTransactionFailed
	}

	if out.Transaction == nil {
		return nil, fmt.Errorf("transaction %s: result missing payload", signature)
	}
	tx, err := out.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	// Versioned transactions load part of their key list from lookup
	// tables; balances index into the combined list.
	keys := make([]solana.PublicKey, 0, len(tx.Message.AccountKeys)+len(meta.LoadedAddresses.Writable)+len(meta.LoadedAddresses.ReadOnly))
	keys = append(keys, tx.Message.AccountKeys...)
	keys = append(keys, meta.LoadedAddresses.Writable...)
	keys = append(keys, meta.LoadedAddresses.ReadOnly...)

	if params.TokenMint == nil {
		err = validateNativeTransfer(keys, meta, params)
	} else {
		err = validateTokenTransfer(keys, meta, *params.TokenMint, params)
	}
	if err != nil {
		return nil, err
	}

	for _, reference := range params.References {
		if accountIndex(keys, reference) < 0 {
			return nil, ErrReferenceNotInTransaction
		}
	}

	if params.Memo != "" {
		if !hasMemo(keys, tx.Message.Instructions, params.Memo) {
			return nil, ErrMemoNotVerified
		}
	}

	c.logger.InfoContext(ctx, "validated transfer",
		"signature", signature.String(),
		"recipient", params.Recipient.String(),
		"amount", params.Amount.String(),
		"slot", out.Slot,
	)

	status = "success"
	return out, nil
}

// validateNativeTransfer checks that the recipient's lamport balance grew by
// at least the expected amount of SOL.
func validateNativeTransfer(keys []solana.PublicKey, meta *rpc.TransactionMeta, params ValidateParams) error {
	idx := accountIndex(keys, params.Recipient)
	if idx < 0 {
		return ErrRecipientNotInTransaction
	}
	if idx >= len(meta.PreBalances) || idx >= len(meta.PostBalances) {
		return fmt.Errorf("balances missing for account index %d", idx)
	}

	pre := lamportsToSOL(meta.PreBalances[idx])
	post := lamportsToSOL(meta.PostBalances[idx])
	if post.Sub(pre).LessThan(params.Amount) {
		return ErrAmountNotTransferred
	}
	return nil
}

// validateTokenTransfer checks that the recipient's associated token account
// balance for the mint grew by at least the expected amount. The associated
// account is derived under both token programs, since the transaction alone
// does not say which one owns the mint.
func validateTokenTransfer(keys []solana.PublicKey, meta *rpc.TransactionMeta, mint solana.PublicKey, params ValidateParams) error {
	idx := -1
	for _, program := range []solana.PublicKey{solana.TokenProgramID, solana.Token2022ProgramID} {
		ata, err := FindAssociatedTokenAddress(params.Recipient, mint, program)
		if err != nil {
			return err
		}
		if i := accountIndex(keys, ata); i >= 0 {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrRecipientNotInTransaction
	}

	pre, err := tokenBalanceAmount(meta.PreTokenBalances, idx, mint)
	if err != nil {
		return err
	}
	post, err := tokenBalanceAmount(meta.PostTokenBalances, idx, mint)
	if err != nil {
		return err
	}
	if post.Sub(pre).LessThan(params.Amount) {
		return ErrAmountNotTransferred
	}
	return nil
}

// tokenBalanceAmount returns the display-unit balance recorded for the
// account index and mint, or zero when the account has no entry (as when it
// was created by the transaction itself).
func tokenBalanceAmount(balances []rpc.TokenBalance, idx int, mint solana.PublicKey) (decimal.Decimal, error) {
	for _, balance := range balances {
		if int(balance.AccountIndex) != idx || !balance.Mint.Equals(mint) {
			continue
		}
		if balance.UiTokenAmount == nil {
			break
		}
		amount, err := decimal.NewFromString(balance.UiTokenAmount.Amount)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("malformed token balance %q: %w", balance.UiTokenAmount.Amount, err)
		}
		return amount.Shift(-int32(balance.UiTokenAmount.Decimals)), nil
	}
	return decimal.Zero, nil
}

// hasMemo reports whether any instruction invokes a memo program with
// exactly the expected text as its data.
func hasMemo(keys []solana.PublicKey, instructions []solana.CompiledInstruction, memo string) bool {
	for _, ix := range instructions {
		if int(ix.ProgramIDIndex) >= len(keys) {
			continue
		}
		program := keys[ix.ProgramIDIndex]
		if !program.Equals(MemoProgramIDSPL) && !program.Equals(MemoProgramIDLegacy) {
			continue
		}
		if string(ix.Data) == memo {
			return true
		}
	}
	return false
}

// accountIndex returns the position of key in keys, or -1.
func accountIndex(keys []solana.PublicKey, key solana.PublicKey) int {
	for i, k := range keys {
		if k.Equals(key) {
			return i
		}
	}
	return -1
}
