package solpay

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// maxURLLength caps how much of a scanned QR code or pasted link ParseURL
// will look at. Payment URLs are short; anything longer is garbage.
const maxURLLength = 2048

// PaymentURL is a decoded solana: payment link.
// Format: solana:{recipient}?amount={amount}&spl-token={mint}&reference={key}&label={label}&message={message}&memo={memo}
//
// Amount is optional in the link itself: a URL without one asks the payer's
// wallet to prompt for the amount. Label and Message are display hints for
// the wallet UI and never reach the chain; Memo does, as a memo instruction.
type PaymentURL struct {
	Recipient  solana.PublicKey
	Amount     *decimal.Decimal
	TokenMint  *solana.PublicKey
	References []solana.PublicKey
	Label      string
	Message    string
	Memo       string
}

// TransferRequest converts the link into the request CreateTransfer consumes.
// Links without an amount cannot be built into a transaction directly, so
// those return ErrURLAmountMissing and the caller must supply the amount.
func (p *PaymentURL) TransferRequest() (TransferRequest, error) {
	if p.Amount == nil {
		return TransferRequest{}, ErrURLAmountMissing
	}
	return TransferRequest{
		Recipient:  p.Recipient,
		Amount:     *p.Amount,
		TokenMint:  p.TokenMint,
		References: p.References,
		Memo:       p.Memo,
	}, nil
}

// EncodeURL renders the payment link for p. The recipient rides in the
// opaque part of the URL; everything else is query parameters.
func EncodeURL(p PaymentURL) string {
	params := url.Values{}
	if p.Amount != nil {
		params.Set("amount", p.Amount.String())
	}
	if p.TokenMint != nil {
		params.Set("spl-token", p.TokenMint.String())
	}
	for _, reference := range p.References {
		params.Add("reference", reference.String())
	}
	if p.Label != "" {
		params.Set("label", p.Label)
	}
	if p.Message != "" {
		params.Set("message", p.Message)
	}
	if p.Memo != "" {
		params.Set("memo", p.Memo)
	}

	if len(params) == 0 {
		return fmt.Sprintf("solana:%s", p.Recipient)
	}
	return fmt.Sprintf("solana:%s?%s", p.Recipient, params.Encode())
}

// ParseURL decodes a solana: payment link. Malformed links return
// *ParseURLError values; links that point at an interactive transaction
// endpoint rather than a recipient are rejected with
// ErrURLTransactionRequest.
func ParseURL(raw string) (*PaymentURL, error) {
	if len(raw) > maxURLLength {
		return nil, ErrURLLength
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "solana" {
		return nil, ErrURLScheme
	}
	if u.Opaque == "" {
		return nil, ErrURLRecipient
	}

	// Transaction-request links carry a nested (usually percent-encoded)
	// https URL where the recipient would be. A base58 recipient never
	// contains ':' or '%'.
	if strings.ContainsAny(u.Opaque, ":%") {
		return nil, ErrURLTransactionRequest
	}

	recipient, err := solana.PublicKeyFromBase58(u.Opaque)
	if err != nil {
		return nil, ErrURLRecipient
	}

	params, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}

	p := &PaymentURL{
		Recipient: recipient,
		Label:     params.Get("label"),
		Message:   params.Get("message"),
		Memo:      params.Get("memo"),
	}

	if raw := params.Get("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, ErrURLAmount
		}
		if amount.Sign() < 0 {
			return nil, ErrURLAmount
		}
		p.Amount = &amount
	}

	if raw := params.Get("spl-token"); raw != "" {
		mint, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return nil, ErrURLToken
		}
		p.TokenMint = &mint
	}

	for _, raw := range params["reference"] {
		reference, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return nil, ErrURLReference
		}
		p.References = append(p.References, reference)
	}

	return p, nil
}
