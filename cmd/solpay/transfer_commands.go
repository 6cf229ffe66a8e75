package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/brojonat/solpay"
)

func transferCommand() *cli.Command {
	return &cli.Command{
		Name:      "transfer",
		Aliases:   []string{"build"},
		Usage:     "Build an unsigned transfer transaction",
		ArgsUsage: "RECIPIENT AMOUNT",
		Description: `Build an unsigned SOL or SPL token transfer and print it as base64.

The transaction is validated against live chain state (accounts exist, the
sender can cover the amount) but is not signed or submitted. Pass the output
to a wallet or signer.

Example:
  solpay transfer 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM 1.5 \
    --sender DYw8jCTfwHNRJhhmFcbXvVDTqWMEVFBX6ZKUmG5CNSKK \
    --reference 4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "sender",
				Aliases:  []string{"from"},
				Usage:    "Sender wallet address (pays unless --fee-payer is set)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "SPL token mint address (omit for native SOL)",
			},
			&cli.StringSliceFlag{
				Name:    "reference",
				Aliases: []string{"r"},
				Usage:   "Reference key to attach to the transfer (can be specified multiple times)",
			},
			&cli.StringFlag{
				Name:  "memo",
				Usage: "Memo to attach to the transaction",
			},
			&cli.StringFlag{
				Name:  "fee-payer",
				Usage: "Fee payer address (defaults to the sender)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return fmt.Errorf("recipient and amount are required")
			}

			recipient, err := solana.PublicKeyFromBase58(c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("invalid recipient %q: %w", c.Args().Get(0), err)
			}
			amount, err := decimal.NewFromString(c.Args().Get(1))
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", c.Args().Get(1), err)
			}
			sender, err := solana.PublicKeyFromBase58(c.String("sender"))
			if err != nil {
				return fmt.Errorf("invalid sender %q: %w", c.String("sender"), err)
			}

			request := solpay.TransferRequest{
				Recipient: recipient,
				Amount:    amount,
				Memo:      c.String("memo"),
			}

			if tokenStr := c.String("token"); tokenStr != "" {
				mint, err := solana.PublicKeyFromBase58(tokenStr)
				if err != nil {
					return fmt.Errorf("invalid token mint %q: %w", tokenStr, err)
				}
				request.TokenMint = &mint
			}

			request.References, err = parseReferences(c.StringSlice("reference"))
			if err != nil {
				return err
			}

			if fpStr := c.String("fee-payer"); fpStr != "" {
				feePayer, err := solana.PublicKeyFromBase58(fpStr)
				if err != nil {
					return fmt.Errorf("invalid fee payer %q: %w", fpStr, err)
				}
				request.FeePayer = &feePayer
			}

			client, err := newPaymentClient(c)
			if err != nil {
				return err
			}

			tx, err := client.CreateTransfer(context.Background(), sender, request)
			if err != nil {
				return fmt.Errorf("failed to build transfer: %w", err)
			}

			encoded, err := tx.Base64()
			if err != nil {
				return fmt.Errorf("failed to encode transaction: %w", err)
			}

			if c.Bool("json") {
				data, _ := json.MarshalIndent(map[string]interface{}{
					"transaction":             encoded,
					"fee_payer":               tx.FeePayer.String(),
					"blockhash":               tx.Blockhash.String(),
					"last_valid_block_height": tx.LastValidBlockHeight,
				}, "", "  ")
				fmt.Println(string(data))
			} else {
				fmt.Printf("✓ Transfer built\n")
				fmt.Printf("  Recipient:  %s\n", recipient)
				fmt.Printf("  Amount:     %s\n", amount)
				if request.TokenMint != nil {
					fmt.Printf("  Token:      %s\n", request.TokenMint)
				}
				fmt.Printf("  Fee Payer:  %s\n", tx.FeePayer)
				fmt.Printf("  Blockhash:  %s (valid through block %d)\n", tx.Blockhash, tx.LastValidBlockHeight)
				fmt.Printf("\n%s\n", encoded)
			}

			return nil
		},
	}
}
