package solpay

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// SPL token accounts and mints use a fixed C-style packing where optional
// fields always occupy their full width (a 4-byte tag plus a zero-padded
// value). The structs below mirror that packing field for field, so the
// generic binary decoder reads them at the right offsets. Token-2022 appends
// extension data after the base layout; the decoder simply never reads it.
const (
	tokenAccountSize = 165
	mintAccountSize  = 82
)

// Token account states, per the SPL token program.
const (
	tokenAccountUninitialized uint8 = 0
	tokenAccountInitialized   uint8 = 1
	tokenAccountFrozen        uint8 = 2
)

// tokenAccount is the base SPL token account layout.
type tokenAccount struct {
	Mint                 solana.PublicKey
	Owner                solana.PublicKey
	Amount               uint64
	DelegateOption       uint32
	Delegate             solana.PublicKey
	State                uint8
	IsNativeOption       uint32
	IsNative             uint64
	DelegatedAmount      uint64
	CloseAuthorityOption uint32
	CloseAuthority       solana.PublicKey
}

// mintAccount is the SPL mint layout.
type mintAccount struct {
	MintAuthorityOption   uint32
	MintAuthority         solana.PublicKey
	Supply                uint64
	Decimals              uint8
	IsInitialized         bool
	FreezeAuthorityOption uint32
	FreezeAuthority       solana.PublicKey
}

// decodeTokenAccount decodes raw account data into the base token account
// layout. Data shorter than the base layout is not a token account.
func decodeTokenAccount(data []byte) (*tokenAccount, error) {
	if len(data) < tokenAccountSize {
		return nil, fmt.Errorf("token account data too short: %d bytes", len(data))
	}
	var acc tokenAccount
	if err := bin.NewBinDecoder(data).Decode(&acc); err != nil {
		return nil, fmt.Errorf("decode token account: %w", err)
	}
	return &acc, nil
}

// decodeMintAccount decodes raw account data into the mint layout.
func decodeMintAccount(data []byte) (*mintAccount, error) {
	if len(data) < mintAccountSize {
		return nil, fmt.Errorf("mint account data too short: %d bytes", len(data))
	}
	var m mintAccount
	if err := bin.NewBinDecoder(data).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode mint account: %w", err)
	}
	return &m, nil
}

// FindAssociatedTokenAddress derives the associated token account for owner
// and mint under the given token program. The SDK's own helper assumes the
// legacy token program in the seeds; Token-2022 mints need the resolved
// program there instead.
func FindAssociatedTokenAddress(owner, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{owner.Bytes(), tokenProgram.Bytes(), mint.Bytes()},
		solana.SPLAssociatedTokenAccountProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("find associated token address: %w", err)
	}
	return addr, nil
}

// resolveTokenProgram maps a mint account's owner to the token program a
// transfer of that mint must execute under.
func resolveTokenProgram(mintOwner solana.PublicKey) (solana.PublicKey, error) {
	switch {
	case mintOwner.Equals(solana.TokenProgramID):
		return solana.TokenProgramID, nil
	case mintOwner.Equals(solana.Token2022ProgramID):
		return solana.Token2022ProgramID, nil
	default:
		return solana.PublicKey{}, ErrMintOwnerInvalid
	}
}
