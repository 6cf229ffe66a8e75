package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/itchyny/gojq"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/brojonat/solpay"
	"github.com/brojonat/solpay/events"
)

func findCommand() *cli.Command {
	return &cli.Command{
		Name:      "find",
		Usage:     "Find the transaction that used a reference key",
		ArgsUsage: "REFERENCE",
		Description: `Search the reference key's signature history and print the oldest
transaction that mentions it. For a payment reference that is the settling
transaction.

Example:
  solpay find 4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM --json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "until",
				Usage: "Stop searching at this signature (exclusive)",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of signatures to fetch (1-1000)",
				Value:   1000,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("reference is required")
			}

			reference, err := solana.PublicKeyFromBase58(c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("invalid reference %q: %w", c.Args().Get(0), err)
			}

			opts := &solpay.FindReferenceOpts{Limit: c.Int("limit")}
			if untilStr := c.String("until"); untilStr != "" {
				until, err := solana.SignatureFromBase58(untilStr)
				if err != nil {
					return fmt.Errorf("invalid until signature %q: %w", untilStr, err)
				}
				opts.Until = until
			}

			client, err := newPaymentClient(c)
			if err != nil {
				return err
			}

			sig, err := client.FindReference(context.Background(), reference, opts)
			if err != nil {
				return fmt.Errorf("failed to find reference: %w", err)
			}

			printSignature(c.Bool("json"), sig)
			return nil
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate that a transaction settles a payment request",
		ArgsUsage: "SIGNATURE",
		Description: `Fetch a confirmed transaction and check that it pays the recipient at
least the expected amount, mentions every reference key, and carries the
expected memo.

Example:
  solpay validate 5j7s6Ni... --recipient 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM --amount 1.5`,
		Flags: paymentCheckFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("signature is required")
			}

			sig, err := solana.SignatureFromBase58(c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("invalid signature %q: %w", c.Args().Get(0), err)
			}

			params, err := validateParamsFromFlags(c)
			if err != nil {
				return err
			}

			client, err := newPaymentClient(c)
			if err != nil {
				return err
			}

			out, err := client.ValidateTransfer(context.Background(), sig, params)
			if err != nil {
				return fmt.Errorf("failed to validate transfer: %w", err)
			}

			if c.Bool("json") {
				result := map[string]interface{}{
					"signature": sig.String(),
					"slot":      out.Slot,
					"valid":     true,
				}
				if out.BlockTime != nil {
					result["block_time"] = out.BlockTime.Time().Format(time.RFC3339)
				}
				data, _ := json.MarshalIndent(result, "", "  ")
				fmt.Println(string(data))
			} else {
				fmt.Printf("✓ Transfer validated\n")
				fmt.Printf("  Signature: %s\n", sig)
				fmt.Printf("  Slot:      %d\n", out.Slot)
				if out.BlockTime != nil {
					fmt.Printf("  Block Time: %s\n", out.BlockTime.Time().Format(time.RFC3339))
				}
			}
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Aliases:   []string{"await"},
		Usage:     "Block until a payment request settles on chain",
		ArgsUsage: "REFERENCE",
		Description: `Poll the chain until a transaction mentioning the reference key lands and
validates against the expected recipient, amount, and memo.

The memo can additionally be checked structurally: --must-jq parses the
settled transaction's memo as JSON and requires every filter to evaluate to
true.

Example:
  solpay watch 4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM \
    --recipient 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM \
    --amount 9.99 --must-jq '.order_id == "42"' --publish`,
		Flags: append(paymentCheckFlags(),
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "How often to poll for the reference",
				Value:   5 * time.Second,
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Usage:   "How long to wait for settlement (0 waits forever)",
				Value:   10 * time.Minute,
			},
			&cli.StringSliceFlag{
				Name:    "must-jq",
				Aliases: []string{"jq"},
				Usage:   "jq filter the settled memo must satisfy (can be specified multiple times, all must match)",
			},
			&cli.BoolFlag{
				Name:  "publish",
				Usage: "Publish a payment event to NATS JetStream on settlement",
			},
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "NATS server URL",
				EnvVars: []string{"NATS_URL"},
				Value:   "nats://localhost:4222",
			},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("reference is required")
			}

			reference, err := solana.PublicKeyFromBase58(c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("invalid reference %q: %w", c.Args().Get(0), err)
			}

			checks, err := validateParamsFromFlags(c)
			if err != nil {
				return err
			}

			jqFilters, err := compileJQFilters(c.StringSlice("must-jq"))
			if err != nil {
				return err
			}

			params := solpay.AwaitParams{
				Reference:  reference,
				Recipient:  checks.Recipient,
				Amount:     checks.Amount,
				TokenMint:  checks.TokenMint,
				References: checks.References,
				Memo:       checks.Memo,
				Interval:   c.Duration("interval"),
			}

			jsonOutput := c.Bool("json")
			timeout := c.Duration("timeout")

			if !jsonOutput {
				fmt.Fprintf(os.Stderr, "Waiting for payment on reference %s...\n", reference)
				fmt.Fprintf(os.Stderr, "  Recipient: %s\n", params.Recipient)
				fmt.Fprintf(os.Stderr, "  Amount:    %s\n", params.Amount)
				if timeout > 0 {
					fmt.Fprintf(os.Stderr, "  Timeout:   %v\n", timeout)
				}
				fmt.Fprintln(os.Stderr)
			}

			client, err := newPaymentClient(c)
			if err != nil {
				return err
			}

			ctx := context.Background()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			sig, result, err := client.AwaitTransfer(ctx, params)
			if err != nil {
				return fmt.Errorf("failed to await transfer: %w", err)
			}

			memo, _ := memoFromResult(result)
			if len(jqFilters) > 0 && !memoSatisfiesFilters(memo, jqFilters) {
				return fmt.Errorf("settled memo %q did not satisfy the jq filters", memo)
			}

			if c.Bool("publish") {
				if err := publishPaymentEvent(c.String("nats-url"), params, sig, memo); err != nil {
					return err
				}
			}

			printSignature(jsonOutput, sig)
			return nil
		},
	}
}

// paymentCheckFlags describe the expected payment for validate and watch.
func paymentCheckFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "recipient",
			Usage:    "Expected recipient wallet address",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "amount",
			Aliases:  []string{"a"},
			Usage:    "Minimum expected amount in display units",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "token",
			Usage: "SPL token mint address (omit for native SOL)",
		},
		&cli.StringSliceFlag{
			Name:    "reference",
			Aliases: []string{"r"},
			Usage:   "Additional reference key the transaction must mention",
		},
		&cli.StringFlag{
			Name:  "memo",
			Usage: "Exact memo the transaction must carry",
		},
	}
}

func validateParamsFromFlags(c *cli.Context) (solpay.ValidateParams, error) {
	var params solpay.ValidateParams

	recipient, err := solana.PublicKeyFromBase58(c.String("recipient"))
	if err != nil {
		return params, fmt.Errorf("invalid recipient %q: %w", c.String("recipient"), err)
	}
	params.Recipient = recipient

	params.Amount, err = decimal.NewFromString(c.String("amount"))
	if err != nil {
		return params, fmt.Errorf("invalid amount %q: %w", c.String("amount"), err)
	}

	if tokenStr := c.String("token"); tokenStr != "" {
		mint, err := solana.PublicKeyFromBase58(tokenStr)
		if err != nil {
			return params, fmt.Errorf("invalid token mint %q: %w", tokenStr, err)
		}
		params.TokenMint = &mint
	}

	params.References, err = parseReferences(c.StringSlice("reference"))
	if err != nil {
		return params, err
	}

	params.Memo = c.String("memo")
	return params, nil
}

func publishPaymentEvent(natsURL string, params solpay.AwaitParams, sig *rpc.TransactionSignature, memo string) error {
	publisher, err := events.NewPublisher(natsURL, nil, newLogger())
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer publisher.Close()

	event := events.FromValidatedTransfer(params, sig)
	if memo != "" {
		// Report what actually settled, not just what was requested.
		event.Memo = memo
	}

	if err := publisher.PublishPayment(context.Background(), event); err != nil {
		return fmt.Errorf("failed to publish payment event: %w", err)
	}
	return nil
}

func printSignature(jsonOutput bool, sig *rpc.TransactionSignature) {
	if jsonOutput {
		out := map[string]interface{}{
			"signature": sig.Signature.String(),
			"slot":      sig.Slot,
		}
		if sig.BlockTime != nil {
			out["block_time"] = sig.BlockTime.Time().Format(time.RFC3339)
		}
		if sig.ConfirmationStatus != "" {
			out["confirmation_status"] = sig.ConfirmationStatus
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("✓ Payment transaction found\n")
		fmt.Printf("  Signature: %s\n", sig.Signature)
		fmt.Printf("  Slot:      %d\n", sig.Slot)
		if sig.BlockTime != nil {
			fmt.Printf("  Block Time: %s\n", sig.BlockTime.Time().Format(time.RFC3339))
		}
		if sig.ConfirmationStatus != "" {
			fmt.Printf("  Status:    %s\n", sig.ConfirmationStatus)
		}
	}
}

// memoFromResult extracts the memo attached to a fetched transaction, if any.
func memoFromResult(result *rpc.GetTransactionResult) (string, bool) {
	if result == nil || result.Transaction == nil {
		return "", false
	}
	tx, err := result.Transaction.GetTransaction()
	if err != nil || tx == nil {
		return "", false
	}
	return memoFromMessage(&tx.Message)
}

// memoFromMessage scans a message's instructions for a memo program
// invocation and returns its data.
func memoFromMessage(msg *solana.Message) (string, bool) {
	for _, ix := range msg.Instructions {
		if int(ix.ProgramIDIndex) >= len(msg.AccountKeys) {
			continue
		}
		program := msg.AccountKeys[ix.ProgramIDIndex]
		if program.Equals(solpay.MemoProgramIDSPL) || program.Equals(solpay.MemoProgramIDLegacy) {
			return string(ix.Data), true
		}
	}
	return "", false
}

func compileJQFilters(filters []string) ([]*gojq.Code, error) {
	compiled := make([]*gojq.Code, len(filters))
	for i, filter := range filters {
		query, err := gojq.Parse(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
		}
		compiled[i], err = gojq.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
		}
	}
	return compiled, nil
}

// memoSatisfiesFilters parses the memo as JSON and requires every filter to
// produce a truthy result.
func memoSatisfiesFilters(memo string, filters []*gojq.Code) bool {
	if len(filters) == 0 {
		return true
	}

	var memoJSON interface{}
	if err := json.Unmarshal([]byte(memo), &memoJSON); err != nil {
		// A memo that is not JSON cannot satisfy structural filters.
		return false
	}

	for _, code := range filters {
		iter := code.Run(memoJSON)
		v, ok := iter.Next()
		if !ok {
			return false
		}
		if _, isErr := v.(error); isErr {
			return false
		}
		if !isTruthy(v) {
			return false
		}
	}
	return true
}

// isTruthy checks if a jq result value is truthy.
// In jq, false and null are falsy, everything else is truthy.
func isTruthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	// Everything else (numbers, strings, objects, arrays) is truthy
	return true
}
