package solpay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/brojonat/solpay/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Client builds, finds, and validates payment transfers against a Solana RPC
// endpoint. It wraps the RPC client with the payment-level operations; it
// never signs or submits anything.
type Client struct {
	rpc        RPCClient
	logger     *slog.Logger
	metrics    *metrics.Metrics
	endpoint   string // RPC endpoint identifier for metrics (e.g., "mainnet", "devnet", rpc host)
	commitment rpc.CommitmentType
}

// NewClient creates a new payment client.
// The endpoint parameter is used for metrics labeling (e.g., "mainnet",
// "devnet", or RPC hostname). If metrics is nil, no metrics will be recorded.
// If logger is nil, logs are discarded. Account and blockhash lookups run at
// CommitmentConfirmed unless changed with SetCommitment.
func NewClient(rpcClient RPCClient, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		rpc:        rpcClient,
		logger:     logger,
		metrics:    m,
		endpoint:   endpoint,
		commitment: rpc.CommitmentConfirmed,
	}
}

// SetCommitment changes the commitment level used for lookups. Set it before
// sharing the client across goroutines.
func (c *Client) SetCommitment(commitment rpc.CommitmentType) {
	c.commitment = commitment
}

// getAccount fetches account info at the client's commitment. A nil account
// with a nil error means the account does not exist on chain.
func (c *Client) getAccount(ctx context.Context, address solana.PublicKey) (*rpc.Account, error) {
	opts := &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	}

	start := time.Now()
	out, err := c.rpc.GetAccountInfo(ctx, address, opts)
	duration := time.Since(start).Seconds()

	// The RPC layer reports a missing account as ErrNotFound; that is an
	// answer, not a failure.
	notFound := errors.Is(err, rpc.ErrNotFound)

	status := "success"
	if err != nil && !notFound {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall("GetAccountInfo", status, c.endpoint, duration)
	}

	if notFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account info for %s: %w", address, err)
	}
	if out == nil || out.Value == nil {
		return nil, nil
	}
	return out.Value, nil
}

// latestBlockhash fetches the current blockhash and its validity window.
func (c *Client) latestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	start := time.Now()
	out, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall("GetLatestBlockhash", status, c.endpoint, duration)
	}

	if err != nil {
		return solana.Hash{}, 0, fmt.Errorf("get latest blockhash: %w", err)
	}
	if out == nil || out.Value == nil {
		return solana.Hash{}, 0, fmt.Errorf("get latest blockhash: empty response")
	}
	return out.Value.Blockhash, out.Value.LastValidBlockHeight, nil
}
