package solpay

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRPCClient implements RPCClient for testing.
// It's behavior-focused: we set what it should return, not verify call
// sequences, except that account lookups are recorded in order so tests can
// check which lookups ran.
type mockRPCClient struct {
	accounts     map[string]*rpc.Account
	accountErr   error
	accountCalls []string
	accountOpts  *rpc.GetAccountInfoOpts

	blockhash            solana.Hash
	lastValidBlockHeight uint64
	blockhashErr         error

	signatures []*rpc.TransactionSignature
	// signaturesQueue, when non-empty, overrides signatures one call at a
	// time, letting tests script successive polls.
	signaturesQueue [][]*rpc.TransactionSignature
	signaturesErr   error
	signaturesOpts  *rpc.GetSignaturesForAddressOpts

	transactions map[string]*rpc.GetTransactionResult
	// transactionsQueue, when non-empty, overrides transactions one call at
	// a time. A nil entry behaves like a missing transaction.
	transactionsQueue []*rpc.GetTransactionResult
	transactionErr    error
	transactionOpts   *rpc.GetTransactionOpts
}

func (m *mockRPCClient) GetAccountInfo(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error) {
	m.accountCalls = append(m.accountCalls, account.String())
	m.accountOpts = opts
	if m.accountErr != nil {
		return nil, m.accountErr
	}
	acc, ok := m.accounts[account.String()]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return &rpc.GetAccountInfoResult{Value: acc}, nil
}

func (m *mockRPCClient) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	if m.blockhashErr != nil {
		return nil, m.blockhashErr
	}
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{
			Blockhash:            m.blockhash,
			LastValidBlockHeight: m.lastValidBlockHeight,
		},
	}, nil
}

func (m *mockRPCClient) GetSignaturesForAddress(ctx context.Context, address solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error) {
	m.signaturesOpts = opts
	if m.signaturesErr != nil {
		return nil, m.signaturesErr
	}
	if len(m.signaturesQueue) > 0 {
		out := m.signaturesQueue[0]
		m.signaturesQueue = m.signaturesQueue[1:]
		return out, nil
	}
	return m.signatures, nil
}

func (m *mockRPCClient) GetTransaction(ctx context.Context, signature solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
	m.transactionOpts = opts
	if m.transactionErr != nil {
		return nil, m.transactionErr
	}
	if len(m.transactionsQueue) > 0 {
		out := m.transactionsQueue[0]
		m.transactionsQueue = m.transactionsQueue[1:]
		if out == nil {
			return nil, rpc.ErrNotFound
		}
		return out, nil
	}
	out, ok := m.transactions[signature.String()]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return out, nil
}

func newTestClient(mock *mockRPCClient) *Client {
	return NewClient(mock, "test", nil, nil)
}

// testKey returns a deterministic public key filled with the seed byte.
func testKey(seed byte) solana.PublicKey {
	var b [32]byte
	for i := range b {
		b[i] = seed
	}
	return solana.PublicKeyFromBytes(b[:])
}

// testAccount builds an rpc.Account the way the RPC layer would decode one
// off the wire.
func testAccount(t *testing.T, lamports uint64, owner solana.PublicKey, executable bool, data []byte) *rpc.Account {
	t.Helper()

	raw := map[string]interface{}{
		"lamports":   lamports,
		"owner":      owner.String(),
		"executable": executable,
		"rentEpoch":  0,
		"data":       []interface{}{base64.StdEncoding.EncodeToString(data), "base64"},
	}
	buf, err := json.Marshal(raw)
	require.NoError(t, err)

	var acc rpc.Account
	require.NoError(t, json.Unmarshal(buf, &acc))
	return &acc
}

// tokenAccountData lays out a 165-byte SPL token account.
func tokenAccountData(mint, owner solana.PublicKey, amount uint64, state uint8) []byte {
	data := make([]byte, tokenAccountSize)
	copy(data[0:32], mint.Bytes())
	copy(data[32:64], owner.Bytes())
	binary.LittleEndian.PutUint64(data[64:72], amount)
	data[108] = state
	return data
}

// mintAccountData lays out an 82-byte SPL mint account.
func mintAccountData(decimals uint8, initialized bool) []byte {
	data := make([]byte, mintAccountSize)
	data[44] = decimals
	if initialized {
		data[45] = 1
	}
	return data
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestNewClient_Defaults(t *testing.T) {
	mock := &mockRPCClient{}
	client := NewClient(mock, "test", nil, nil)

	require.NotNil(t, client)

	// Lookups run at confirmed commitment unless changed.
	_, _ = client.getAccount(context.Background(), testKey(0x01))
	require.NotNil(t, mock.accountOpts)
	assert.Equal(t, rpc.CommitmentConfirmed, mock.accountOpts.Commitment)
	assert.Equal(t, solana.EncodingBase64, mock.accountOpts.Encoding)
}

func TestSetCommitment(t *testing.T) {
	mock := &mockRPCClient{}
	client := newTestClient(mock)
	client.SetCommitment(rpc.CommitmentFinalized)

	_, _ = client.getAccount(context.Background(), testKey(0x01))
	require.NotNil(t, mock.accountOpts)
	assert.Equal(t, rpc.CommitmentFinalized, mock.accountOpts.Commitment)
}

func TestGetAccount_MissingIsNotAnError(t *testing.T) {
	mock := &mockRPCClient{}
	client := newTestClient(mock)

	acc, err := client.getAccount(context.Background(), testKey(0x01))
	require.NoError(t, err)
	assert.Nil(t, acc)
}

func TestGetAccount_RPCErrorIsWrapped(t *testing.T) {
	mock := &mockRPCClient{accountErr: assert.AnError}
	client := newTestClient(mock)

	acc, err := client.getAccount(context.Background(), testKey(0x01))
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, acc)
}
