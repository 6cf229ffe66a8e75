package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/urfave/cli/v2"

	"github.com/brojonat/solpay"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:  "solpay",
		Usage: "Solana payment request CLI",
		Description: `A command-line tool for building and settling Solana payment requests.

Use this CLI to build unsigned transfer transactions, encode and decode payment
URLs, render QR codes, and watch the chain for settlement.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			transferCommand(),
			// Payment URL encoding and decoding commands
			{
				Name:  "url",
				Usage: "Payment URL commands",
				Subcommands: []*cli.Command{
					urlEncodeCommand(),
					urlParseCommand(),
				},
			},
			qrCommand(),
			invoiceCommand(),
			findCommand(),
			validateCommand(),
			watchCommand(),
		},
		// Global flags available to all commands
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "rpc-url",
				Usage:   "Solana RPC endpoint URL",
				EnvVars: []string{"SOLPAY_RPC_URL"},
				Value:   "https://api.mainnet-beta.solana.com",
			},
			&cli.StringFlag{
				Name:    "commitment",
				Usage:   "Commitment level for RPC queries (processed, confirmed, finalized)",
				EnvVars: []string{"SOLPAY_COMMITMENT"},
				Value:   "confirmed",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output in JSON format",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newLogger returns a logger that only surfaces errors, keeping stdout free
// for command output.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func newPaymentClient(c *cli.Context) (*solpay.Client, error) {
	endpoint := c.String("rpc-url")
	commitment, err := parseCommitment(c.String("commitment"))
	if err != nil {
		return nil, err
	}

	client := solpay.NewClient(solpay.NewRPCClient(endpoint), endpoint, nil, newLogger())
	client.SetCommitment(commitment)
	return client, nil
}

func parseCommitment(s string) (rpc.CommitmentType, error) {
	switch s {
	case "processed":
		return rpc.CommitmentProcessed, nil
	case "", "confirmed":
		return rpc.CommitmentConfirmed, nil
	case "finalized":
		return rpc.CommitmentFinalized, nil
	}
	return "", fmt.Errorf("unknown commitment level %q (want processed, confirmed, or finalized)", s)
}

func parseReferences(raw []string) ([]solana.PublicKey, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	refs := make([]solana.PublicKey, 0, len(raw))
	for _, r := range raw {
		key, err := solana.PublicKeyFromBase58(r)
		if err != nil {
			return nil, fmt.Errorf("invalid reference %q: %w", r, err)
		}
		refs = append(refs, key)
	}
	return refs, nil
}
