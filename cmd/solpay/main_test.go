package main

import (
	"testing"

	"github.com/gagliardetto/solana-go/rpc"
)

func TestParseCommitment(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      rpc.CommitmentType
		expectErr bool
	}{
		{name: "processed", input: "processed", want: rpc.CommitmentProcessed},
		{name: "confirmed", input: "confirmed", want: rpc.CommitmentConfirmed},
		{name: "finalized", input: "finalized", want: rpc.CommitmentFinalized},
		{name: "empty defaults to confirmed", input: "", want: rpc.CommitmentConfirmed},
		{name: "unknown level", input: "sorta-final", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCommitment(tt.input)
			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseReferences(t *testing.T) {
	refs, err := parseReferences([]string{
		"So11111111111111111111111111111111111111112",
		"SysvarC1ock11111111111111111111111111111111",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d", len(refs))
	}
	if refs[0].String() != "So11111111111111111111111111111111111111112" {
		t.Errorf("expected input order preserved, got %s first", refs[0])
	}

	if _, err := parseReferences([]string{"not-a-key"}); err == nil {
		t.Error("expected error for invalid reference")
	}

	refs, err = parseReferences(nil)
	if err != nil {
		t.Fatalf("unexpected error for empty input: %v", err)
	}
	if refs != nil {
		t.Errorf("expected nil references for empty input, got %v", refs)
	}
}
