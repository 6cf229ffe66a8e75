package solpay

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTokenAccount(t *testing.T) {
	mint := testKey(0x11)
	owner := testKey(0x12)
	data := tokenAccountData(mint, owner, 123_456, tokenAccountFrozen)

	acc, err := decodeTokenAccount(data)
	require.NoError(t, err)
	assert.Equal(t, mint, acc.Mint)
	assert.Equal(t, owner, acc.Owner)
	assert.Equal(t, uint64(123_456), acc.Amount)
	assert.Equal(t, tokenAccountFrozen, acc.State)
}

func TestDecodeTokenAccount_ShortData(t *testing.T) {
	_, err := decodeTokenAccount(make([]byte, 10))
	require.Error(t, err)

	_, err = decodeTokenAccount(nil)
	require.Error(t, err)
}

func TestDecodeMintAccount(t *testing.T) {
	acc, err := decodeMintAccount(mintAccountData(6, true))
	require.NoError(t, err)
	assert.Equal(t, uint8(6), acc.Decimals)
	assert.True(t, acc.IsInitialized)

	acc, err = decodeMintAccount(mintAccountData(9, false))
	require.NoError(t, err)
	assert.Equal(t, uint8(9), acc.Decimals)
	assert.False(t, acc.IsInitialized)
}

func TestDecodeMintAccount_ShortData(t *testing.T) {
	_, err := decodeMintAccount(make([]byte, 10))
	require.Error(t, err)
}

func TestFindAssociatedTokenAddress(t *testing.T) {
	owner := testKey(0x01)

	ata, err := FindAssociatedTokenAddress(owner, usdcMint, solana.TokenProgramID)
	require.NoError(t, err)

	// Derivation is deterministic.
	again, err := FindAssociatedTokenAddress(owner, usdcMint, solana.TokenProgramID)
	require.NoError(t, err)
	assert.Equal(t, ata, again)

	// The token program participates in the seeds, so a Token-2022 mint
	// lives at a different associated address.
	ata2022, err := FindAssociatedTokenAddress(owner, usdcMint, solana.Token2022ProgramID)
	require.NoError(t, err)
	assert.NotEqual(t, ata, ata2022)

	other, err := FindAssociatedTokenAddress(testKey(0x02), usdcMint, solana.TokenProgramID)
	require.NoError(t, err)
	assert.NotEqual(t, ata, other)
}

func TestResolveTokenProgram(t *testing.T) {
	program, err := resolveTokenProgram(solana.TokenProgramID)
	require.NoError(t, err)
	assert.Equal(t, solana.TokenProgramID, program)

	program, err = resolveTokenProgram(solana.Token2022ProgramID)
	require.NoError(t, err)
	assert.Equal(t, solana.Token2022ProgramID, program)

	_, err = resolveTokenProgram(solana.SystemProgramID)
	require.ErrorIs(t, err, ErrMintOwnerInvalid)
}
