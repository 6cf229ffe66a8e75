package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/brojonat/solpay"
)

// paymentURLFlags are shared by every command that assembles a PaymentURL
// from the command line.
func paymentURLFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "amount",
			Aliases: []string{"a"},
			Usage:   "Requested amount in display units (e.g., 1.5)",
		},
		&cli.StringFlag{
			Name:  "token",
			Usage: "SPL token mint address (omit for native SOL)",
		},
		&cli.StringSliceFlag{
			Name:    "reference",
			Aliases: []string{"r"},
			Usage:   "Reference key (can be specified multiple times)",
		},
		&cli.StringFlag{
			Name:  "label",
			Usage: "Merchant label shown by the payer's wallet",
		},
		&cli.StringFlag{
			Name:  "message",
			Usage: "Payment description shown by the payer's wallet",
		},
		&cli.StringFlag{
			Name:  "memo",
			Usage: "Memo the payer's wallet should attach to the transaction",
		},
	}
}

// paymentURLFromFlags builds a PaymentURL from the positional recipient and
// the shared flags.
func paymentURLFromFlags(c *cli.Context) (solpay.PaymentURL, error) {
	var p solpay.PaymentURL

	if c.NArg() < 1 {
		return p, fmt.Errorf("recipient is required")
	}
	recipient, err := solana.PublicKeyFromBase58(c.Args().Get(0))
	if err != nil {
		return p, fmt.Errorf("invalid recipient %q: %w", c.Args().Get(0), err)
	}
	p.Recipient = recipient

	if amountStr := c.String("amount"); amountStr != "" {
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return p, fmt.Errorf("invalid amount %q: %w", amountStr, err)
		}
		p.Amount = &amount
	}

	if tokenStr := c.String("token"); tokenStr != "" {
		mint, err := solana.PublicKeyFromBase58(tokenStr)
		if err != nil {
			return p, fmt.Errorf("invalid token mint %q: %w", tokenStr, err)
		}
		p.TokenMint = &mint
	}

	p.References, err = parseReferences(c.StringSlice("reference"))
	if err != nil {
		return p, err
	}

	p.Label = c.String("label")
	p.Message = c.String("message")
	p.Memo = c.String("memo")
	return p, nil
}

func urlEncodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     "Encode a payment request as a solana: URL",
		ArgsUsage: "RECIPIENT",
		Flags:     paymentURLFlags(),
		Action: func(c *cli.Context) error {
			p, err := paymentURLFromFlags(c)
			if err != nil {
				return err
			}

			encoded := solpay.EncodeURL(p)

			if c.Bool("json") {
				data, _ := json.Marshal(map[string]interface{}{"url": encoded})
				fmt.Println(string(data))
			} else {
				fmt.Println(encoded)
			}
			return nil
		},
	}
}

func urlParseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Aliases:   []string{"decode"},
		Usage:     "Parse a solana: URL into its payment fields",
		ArgsUsage: "URL",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("url is required")
			}

			p, err := solpay.ParseURL(c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("failed to parse url: %w", err)
			}

			if c.Bool("json") {
				out := map[string]interface{}{
					"recipient": p.Recipient.String(),
				}
				if p.Amount != nil {
					out["amount"] = p.Amount.String()
				}
				if p.TokenMint != nil {
					out["spl_token"] = p.TokenMint.String()
				}
				if len(p.References) > 0 {
					refs := make([]string, len(p.References))
					for i, r := range p.References {
						refs[i] = r.String()
					}
					out["references"] = refs
				}
				if p.Label != "" {
					out["label"] = p.Label
				}
				if p.Message != "" {
					out["message"] = p.Message
				}
				if p.Memo != "" {
					out["memo"] = p.Memo
				}
				data, _ := json.MarshalIndent(out, "", "  ")
				fmt.Println(string(data))
			} else {
				fmt.Printf("Recipient: %s\n", p.Recipient)
				if p.Amount != nil {
					fmt.Printf("Amount:    %s\n", p.Amount)
				} else {
					fmt.Printf("Amount:    (payer decides)\n")
				}
				if p.TokenMint != nil {
					fmt.Printf("Token:     %s\n", p.TokenMint)
				} else {
					fmt.Printf("Token:     SOL\n")
				}
				for _, r := range p.References {
					fmt.Printf("Reference: %s\n", r)
				}
				if p.Label != "" {
					fmt.Printf("Label:     %s\n", p.Label)
				}
				if p.Message != "" {
					fmt.Printf("Message:   %s\n", p.Message)
				}
				if p.Memo != "" {
					fmt.Printf("Memo:      %s\n", p.Memo)
				}
			}
			return nil
		},
	}
}

func qrCommand() *cli.Command {
	return &cli.Command{
		Name:      "qr",
		Usage:     "Render a payment URL as a QR code PNG",
		ArgsUsage: "URL",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "size",
				Usage: "Image size in pixels",
				Value: 256,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path",
				Value:   "payment-qr.png",
			},
			&cli.BoolFlag{
				Name:  "base64",
				Usage: "Print the PNG as base64 to stdout instead of writing a file",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("url is required")
			}

			// Parse first so a malformed URL fails before any encoding work.
			p, err := solpay.ParseURL(c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("failed to parse url: %w", err)
			}

			size := c.Int("size")

			if c.Bool("base64") {
				encoded, err := solpay.QRCodeBase64(*p, size)
				if err != nil {
					return fmt.Errorf("failed to render QR code: %w", err)
				}
				fmt.Println(encoded)
				return nil
			}

			png, err := solpay.QRCode(*p, size)
			if err != nil {
				return fmt.Errorf("failed to render QR code: %w", err)
			}

			output := c.String("output")
			if err := os.WriteFile(output, png, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			if c.Bool("json") {
				data, _ := json.Marshal(map[string]interface{}{
					"file":  output,
					"bytes": len(png),
				})
				fmt.Println(string(data))
			} else {
				fmt.Printf("✓ QR code written to %s (%d bytes)\n", output, len(png))
			}
			return nil
		},
	}
}

func invoiceCommand() *cli.Command {
	return &cli.Command{
		Name:      "invoice",
		Usage:     "Create a payment request with a fresh reference key",
		ArgsUsage: "RECIPIENT",
		Description: `Create a complete invoice: a unique reference key, a memo, the encoded
payment URL, and a QR code. The reference key is what "solpay watch" later
uses to find the settling transaction.

Example:
  solpay invoice 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM \
    --amount 9.99 --label "Brews & Bites" --message "Order 42"`,
		Flags: append(paymentURLFlags(),
			&cli.IntFlag{
				Name:  "qr-size",
				Usage: "QR code size in pixels",
				Value: 256,
			},
		),
		Action: func(c *cli.Context) error {
			p, err := paymentURLFromFlags(c)
			if err != nil {
				return err
			}

			reference, err := solpay.NewReference()
			if err != nil {
				return fmt.Errorf("failed to create reference: %w", err)
			}
			p.References = append(p.References, reference)

			// A unique memo lets the merchant correlate the settled payment
			// with this invoice even off-chain.
			if p.Memo == "" {
				p.Memo = uuid.New().String()
			}

			encoded := solpay.EncodeURL(p)
			qrBase64, err := solpay.QRCodeBase64(p, c.Int("qr-size"))
			if err != nil {
				return fmt.Errorf("failed to render QR code: %w", err)
			}

			if c.Bool("json") {
				out := map[string]interface{}{
					"recipient":      p.Recipient.String(),
					"reference":      reference.String(),
					"memo":           p.Memo,
					"url":            encoded,
					"qr_code_base64": qrBase64,
				}
				if p.Amount != nil {
					out["amount"] = p.Amount.String()
				}
				if p.TokenMint != nil {
					out["spl_token"] = p.TokenMint.String()
				}
				data, _ := json.MarshalIndent(out, "", "  ")
				fmt.Println(string(data))
			} else {
				fmt.Printf("✓ Invoice created\n")
				fmt.Printf("  Recipient: %s\n", p.Recipient)
				if p.Amount != nil {
					fmt.Printf("  Amount:    %s\n", p.Amount)
				}
				if p.TokenMint != nil {
					fmt.Printf("  Token:     %s\n", p.TokenMint)
				}
				fmt.Printf("  Reference: %s\n", reference)
				fmt.Printf("  Memo:      %s\n", p.Memo)
				fmt.Printf("\n%s\n", encoded)
				fmt.Printf("\nWatch for settlement with:\n  solpay watch %s --recipient %s", reference, p.Recipient)
				if p.Amount != nil {
					fmt.Printf(" --amount %s", p.Amount)
				}
				fmt.Println()
			}
			return nil
		},
	}
}
