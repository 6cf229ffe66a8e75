package solpay

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// CreateTransfer builds an unsigned transaction that pays request.Recipient
// from sender, after validating on-chain state: both parties exist, the
// funding side covers the amount, and (for tokens) the mint and both
// associated token accounts are in a transferable state. Validation failures
// are *CreateTransferError values; RPC transport failures come back wrapped.
//
// The checks run in a fixed order: amount, sender, recipient, then the
// asset-specific pipeline. Nothing is retried and nothing is submitted.
func (c *Client) CreateTransfer(ctx context.Context, sender solana.PublicKey, request TransferRequest) (*Transaction, error) {
	assetType := "native"
	if request.TokenMint != nil {
		assetType = "token"
	}

	status := "error"
	defer func() {
		if c.metrics != nil {
			c.metrics.RecordTransferBuilt(assetType, status)
		}
	}()

	if request.Amount.Sign() <= 0 {
		return nil, ErrAmountNotPositive
	}

	c.logger.DebugContext(ctx, "building transfer",
		"sender", sender.String(),
		"recipient", request.Recipient.String(),
		"amount", request.Amount.String(),
		"asset_type", assetType,
	)

	senderInfo, err := c.getAccount(ctx, sender)
	if err != nil {
		return nil, err
	}
	if senderInfo == nil {
		return nil, ErrSenderNotFound
	}

	recipientInfo, err := c.getAccount(ctx, request.Recipient)
	if err != nil {
		return nil, err
	}
	if recipientInfo == nil {
		return nil, ErrRecipientNotFound
	}

	var transferIx *solana.GenericInstruction
	if request.TokenMint == nil {
		transferIx, err = buildSystemTransfer(sender, senderInfo, recipientInfo, request)
	} else {
		transferIx, err = c.buildTokenTransfer(ctx, sender, *request.TokenMint, request)
	}
	if err != nil {
		return nil, err
	}

	// References ride along on the transfer instruction as read-only
	// non-signer keys, preserving input order for downstream indexers.
	for _, reference := range request.References {
		transferIx.AccountValues = append(transferIx.AccountValues, solana.Meta(reference))
	}

	instructions := []solana.Instruction{transferIx}
	if request.Memo != "" {
		instructions = append(instructions, solana.NewInstruction(
			MemoProgramIDSPL,
			solana.AccountMetaSlice{},
			[]byte(request.Memo),
		))
	}

	blockhash, lastValidBlockHeight, err := c.latestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	feePayer := sender
	if request.FeePayer != nil {
		feePayer = *request.FeePayer
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(feePayer))
	if err != nil {
		return nil, fmt.Errorf("assemble transaction: %w", err)
	}

	c.logger.InfoContext(ctx, "built transfer transaction",
		"sender", sender.String(),
		"recipient", request.Recipient.String(),
		"asset_type", assetType,
		"instructions", len(instructions),
		"blockhash", blockhash.String(),
		"last_valid_block_height", lastValidBlockHeight,
	)

	status = "success"
	return &Transaction{
		Tx:                   tx,
		FeePayer:             feePayer,
		Blockhash:            blockhash,
		LastValidBlockHeight: lastValidBlockHeight,
	}, nil
}

// buildSystemTransfer validates a native SOL transfer and emits its
// instruction. Both parties must be plain system-owned, non-executable
// accounts, and the sender must hold the lamports being moved.
func buildSystemTransfer(sender solana.PublicKey, senderInfo, recipientInfo *rpc.Account, request TransferRequest) (*solana.GenericInstruction, error) {
	if !senderInfo.Owner.Equals(solana.SystemProgramID) {
		return nil, ErrSenderOwnerInvalid
	}
	if senderInfo.Executable {
		return nil, ErrSenderExecutable
	}
	if !recipientInfo.Owner.Equals(solana.SystemProgramID) {
		return nil, ErrRecipientOwnerInvalid
	}
	if recipientInfo.Executable {
		return nil, ErrRecipientExecutable
	}

	lamports, err := toBaseUnits(request.Amount, SOLDecimals)
	if err != nil {
		return nil, err
	}
	if lamports > senderInfo.Lamports {
		return nil, ErrInsufficientFunds
	}

	ix := system.NewTransferInstruction(lamports, sender, request.Recipient).Build()
	data, err := ix.Data()
	if err != nil {
		return nil, fmt.Errorf("encode transfer instruction: %w", err)
	}
	return solana.NewInstruction(solana.SystemProgramID, ix.Accounts(), data), nil
}

// buildTokenTransfer validates an SPL token transfer and emits its
// TransferChecked instruction under the token program that owns the mint.
func (c *Client) buildTokenTransfer(ctx context.Context, sender, mint solana.PublicKey, request TransferRequest) (*solana.GenericInstruction, error) {
	mintInfo, err := c.getAccount(ctx, mint)
	if err != nil {
		return nil, err
	}
	if mintInfo == nil {
		return nil, ErrMintNotFound
	}

	tokenProgram, err := resolveTokenProgram(mintInfo.Owner)
	if err != nil {
		return nil, err
	}

	mintState, err := decodeMintAccount(mintInfo.Data.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("mint %s: %w", mint, err)
	}
	if !mintState.IsInitialized {
		return nil, ErrMintNotInitialized
	}

	amount, err := toBaseUnits(request.Amount, mintState.Decimals)
	if err != nil {
		return nil, err
	}

	senderATA, err := FindAssociatedTokenAddress(sender, mint, tokenProgram)
	if err != nil {
		return nil, err
	}
	recipientATA, err := FindAssociatedTokenAddress(request.Recipient, mint, tokenProgram)
	if err != nil {
		return nil, err
	}

	senderAccount, err := c.getTokenAccount(ctx, senderATA, tokenProgram)
	if err != nil {
		return nil, err
	}
	if senderAccount == nil {
		return nil, ErrSenderTokenAccountNotFound
	}
	if senderAccount.State == tokenAccountUninitialized {
		return nil, ErrSenderNotInitialized
	}
	if senderAccount.State == tokenAccountFrozen {
		return nil, ErrSenderFrozen
	}

	recipientAccount, err := c.getTokenAccount(ctx, recipientATA, tokenProgram)
	if err != nil {
		return nil, err
	}
	if recipientAccount == nil {
		return nil, ErrRecipientTokenAccountNotFound
	}
	if recipientAccount.State == tokenAccountUninitialized {
		return nil, ErrRecipientNotInitialized
	}
	if recipientAccount.State == tokenAccountFrozen {
		return nil, ErrRecipientFrozen
	}

	if senderAccount.Amount < amount {
		return nil, ErrInsufficientFunds
	}

	ix := token.NewTransferCheckedInstruction(
		amount,
		mintState.Decimals,
		senderATA,
		mint,
		recipientATA,
		sender,
		nil,
	).Build()
	data, err := ix.Data()
	if err != nil {
		return nil, fmt.Errorf("encode transfer instruction: %w", err)
	}

	// The SDK builder stamps the legacy token program; re-address the
	// instruction under the program that actually owns the mint so
	// Token-2022 transfers execute under Token-2022.
	return solana.NewInstruction(tokenProgram, ix.Accounts(), data), nil
}

// getTokenAccount fetches and decodes the token account at address. A nil
// account with a nil error means no usable token account exists there: the
// address is empty, holds something that is not a token account, or belongs
// to a different token program.
func (c *Client) getTokenAccount(ctx context.Context, address, tokenProgram solana.PublicKey) (*tokenAccount, error) {
	info, err := c.getAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}
	if !info.Owner.Equals(tokenProgram) {
		return nil, nil
	}
	acc, err := decodeTokenAccount(info.Data.GetBinary())
	if err != nil {
		c.logger.DebugContext(ctx, "account is not a token account",
			"address", address.String(),
			"error", err,
		)
		return nil, nil
	}
	return acc, nil
}
