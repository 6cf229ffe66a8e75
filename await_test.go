package solpay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwaitTransfer_SuccessAfterPolling(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	recipient := testKey(0x02)
	reference := testKey(0x0A)
	result := settledNativeTransfer(t, recipient, reference, 1_000_000_000)

	mock := &mockRPCClient{
		// First poll finds nothing, the payment lands before the second.
		signaturesQueue: [][]*rpc.TransactionSignature{{}},
		signatures: []*rpc.TransactionSignature{
			{Signature: testSigNewest, Slot: 1234},
		},
		transactions: map[string]*rpc.GetTransactionResult{testSigNewest.String(): result},
	}
	client := newTestClient(mock)

	sig, out, err := client.AwaitTransfer(ctx, AwaitParams{
		Reference: reference,
		Recipient: recipient,
		Amount:    decimal.NewFromInt(1),
		Interval:  5 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, testSigNewest, sig.Signature)
	require.NotNil(t, out)
	assert.Equal(t, uint64(1234), out.Slot)
}

func TestAwaitTransfer_ValidationFailureEndsWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	recipient := testKey(0x02)
	reference := testKey(0x0A)
	result := settledNativeTransfer(t, recipient, reference, 500_000_000)

	mock := &mockRPCClient{
		signatures: []*rpc.TransactionSignature{
			{Signature: testSigNewest, Slot: 1234},
		},
		transactions: map[string]*rpc.GetTransactionResult{testSigNewest.String(): result},
	}
	client := newTestClient(mock)

	sig, out, err := client.AwaitTransfer(ctx, AwaitParams{
		Reference: reference,
		Recipient: recipient,
		Amount:    decimal.NewFromInt(1),
		Interval:  5 * time.Millisecond,
	})
	require.ErrorIs(t, err, ErrAmountNotTransferred)
	require.NotNil(t, sig)
	assert.Equal(t, testSigNewest, sig.Signature)
	assert.Nil(t, out)
}

func TestAwaitTransfer_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	mock := &mockRPCClient{}
	client := newTestClient(mock)

	_, _, err := client.AwaitTransfer(ctx, AwaitParams{
		Reference: testKey(0x0A),
		Recipient: testKey(0x02),
		Amount:    decimal.NewFromInt(1),
		Interval:  5 * time.Millisecond,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestAwaitTransfer_WaitsForTransactionVisibility(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	recipient := testKey(0x02)
	reference := testKey(0x0A)
	result := settledNativeTransfer(t, recipient, reference, 1_000_000_000)

	mock := &mockRPCClient{
		signatures: []*rpc.TransactionSignature{
			{Signature: testSigNewest, Slot: 1234},
		},
		// The signature shows up before the transaction itself is
		// queryable at the requested commitment.
		transactionsQueue: []*rpc.GetTransactionResult{nil, result},
	}
	client := newTestClient(mock)

	sig, out, err := client.AwaitTransfer(ctx, AwaitParams{
		Reference: reference,
		Recipient: recipient,
		Amount:    decimal.NewFromInt(1),
		Interval:  5 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NotNil(t, sig)
	require.NotNil(t, out)
	assert.Equal(t, uint64(1234), out.Slot)
}

func TestAwaitTransfer_ExtraReferences(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	recipient := testKey(0x02)
	reference := testKey(0x0A)
	result := settledNativeTransfer(t, recipient, reference, 1_000_000_000)

	mock := &mockRPCClient{
		signatures: []*rpc.TransactionSignature{
			{Signature: testSigNewest, Slot: 1234},
		},
		transactions: map[string]*rpc.GetTransactionResult{testSigNewest.String(): result},
	}
	client := newTestClient(mock)

	// An extra reference that never appears in the transaction makes
	// validation fail conclusively.
	sig, out, err := client.AwaitTransfer(ctx, AwaitParams{
		Reference:  reference,
		Recipient:  recipient,
		Amount:     decimal.NewFromInt(1),
		References: []solana.PublicKey{testKey(0x0C)},
		Interval:   5 * time.Millisecond,
	})
	require.ErrorIs(t, err, ErrReferenceNotInTransaction)
	require.NotNil(t, sig)
	assert.Nil(t, out)
}
