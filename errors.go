package solpay

// CreateTransferError is the error kind CreateTransfer returns for every
// validation failure. Each failure is one of the package-level sentinel
// values below, so callers can branch with errors.Is; errors.As against
// *CreateTransferError identifies the kind without caring which check failed.
// RPC transport failures are not CreateTransferErrors; they come back
// wrapped with the failed lookup's context.
type CreateTransferError struct {
	reason string
}

func (e *CreateTransferError) Error() string { return e.reason }

var (
	ErrAmountNotPositive = &CreateTransferError{"amount must be greater than zero"}
	ErrAmountDecimals    = &CreateTransferError{"amount decimals invalid"}
	ErrAmountOutOfRange  = &CreateTransferError{"amount out of range"}

	ErrSenderNotFound    = &CreateTransferError{"sender not found"}
	ErrRecipientNotFound = &CreateTransferError{"recipient not found"}

	// Native transfers move lamports between plain system accounts, so a
	// program-owned or executable party is rejected up front.
	ErrSenderOwnerInvalid    = &CreateTransferError{"sender owner invalid"}
	ErrSenderExecutable      = &CreateTransferError{"sender executable"}
	ErrRecipientOwnerInvalid = &CreateTransferError{"recipient owner invalid"}
	ErrRecipientExecutable   = &CreateTransferError{"recipient executable"}

	ErrMintNotFound       = &CreateTransferError{"mint not found"}
	ErrMintOwnerInvalid   = &CreateTransferError{"mint owner invalid"}
	ErrMintNotInitialized = &CreateTransferError{"mint not initialized"}

	ErrSenderTokenAccountNotFound    = &CreateTransferError{"sender token account not found"}
	ErrSenderNotInitialized          = &CreateTransferError{"sender not initialized"}
	ErrSenderFrozen                  = &CreateTransferError{"sender frozen"}
	ErrRecipientTokenAccountNotFound = &CreateTransferError{"recipient token account not found"}
	ErrRecipientNotInitialized       = &CreateTransferError{"recipient not initialized"}
	ErrRecipientFrozen               = &CreateTransferError{"recipient frozen"}

	ErrInsufficientFunds = &CreateTransferError{"insufficient funds"}
)

// ValidateTransferError is the error kind ValidateTransfer returns when a
// confirmed transaction does not settle the described payment.
type ValidateTransferError struct {
	reason string
}

func (e *ValidateTransferError) Error() string { return e.reason }

var (
	ErrTransactionNotFound    = &ValidateTransferError{"transaction not found"}
	ErrTransactionMetaMissing = &ValidateTransferError{"transaction meta missing"}
	ErrTransactionFailed      = &ValidateTransferError{"transaction failed"}

	ErrRecipientNotInTransaction = &ValidateTransferError{"recipient not found in transaction"}
	ErrReferenceNotInTransaction = &ValidateTransferError{"reference not found in transaction"}
	ErrAmountNotTransferred      = &ValidateTransferError{"amount not transferred"}
	ErrMemoNotVerified           = &ValidateTransferError{"memo not verified"}
)

// FindReferenceError is the error kind FindReference returns.
type FindReferenceError struct {
	reason string
}

func (e *FindReferenceError) Error() string { return e.reason }

// ErrReferenceNotFound means no on-chain transaction includes the reference
// key yet. Polling callers treat this as "keep waiting".
var ErrReferenceNotFound = &FindReferenceError{"reference not found"}

// ParseURLError is the error kind ParseURL returns for a malformed payment URL.
type ParseURLError struct {
	reason string
}

func (e *ParseURLError) Error() string { return e.reason }

var (
	ErrURLLength             = &ParseURLError{"url length invalid"}
	ErrURLScheme             = &ParseURLError{"url scheme invalid"}
	ErrURLRecipient          = &ParseURLError{"recipient invalid"}
	ErrURLAmount             = &ParseURLError{"amount invalid"}
	ErrURLAmountMissing      = &ParseURLError{"amount missing"}
	ErrURLToken              = &ParseURLError{"spl-token invalid"}
	ErrURLReference          = &ParseURLError{"reference invalid"}
	ErrURLTransactionRequest = &ParseURLError{"transaction requests not supported"}
)
