package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestInMemoryLedger_TransferMaintainsBalance(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.EnsureAccount(ctx, "wallet:a"); err != nil {
		t.Fatalf("ensure account a: %v", err)
	}
	if err := l.EnsureAccount(ctx, "wallet:b"); err != nil {
		t.Fatalf("ensure account b: %v", err)
	}

	SeedBalance(l, "wallet:a", 10_000)

	res, err := l.Transfer(ctx, "wallet:a", "wallet:b", TransferKindP2P, "client-1", 1_500)
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if res.FromBalance != 8_500 {
		t.Fatalf("expected from balance 8500, got %d", res.FromBalance)
	}
	if res.ToBalance != 1_500 {
		t.Fatalf("expected to balance 1500, got %d", res.ToBalance)
	}

	ledgerImpl := l.(*inMemoryLedger)
	total := ledgerImpl.balances["wallet:a"] + ledgerImpl.balances["wallet:b"]
	if total != 10_000 {
		t.Fatalf("ledger not balanced, total=%d", total)
	}
}

func TestInMemoryLedger_DuplicateTransaction(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	l.EnsureAccount(ctx, "wallet:b")
	SeedBalance(l, "wallet:a", 5_000)

	if _, err := l.Transfer(ctx, "wallet:a", "wallet:b", TransferKindP2P, "dup", 500); err != nil {
		t.Fatalf("initial transfer failed: %v", err)
	}
	if _, err := l.Transfer(ctx, "wallet:a", "wallet:b", TransferKindP2P, "dup", 500); !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestInMemoryLedger_RejectsNonPositiveAmounts(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	l.EnsureAccount(ctx, "wallet:b")
	SeedBalance(l, "wallet:a", 5_000)

	if _, err := l.Transfer(ctx, "wallet:a", "wallet:b", TransferKindP2P, "zero", 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}
	if _, err := l.Transfer(ctx, "wallet:a", "wallet:b", TransferKindP2P, "neg", -100); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative, got %v", err)
	}
}

func TestInMemoryLedger_UnknownAccount(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	SeedBalance(l, "wallet:a", 5_000)

	if _, err := l.Balance(ctx, "wallet:missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := l.Transfer(ctx, "wallet:a", "wallet:missing", TransferKindP2P, "tx", 500); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestInMemoryLedger_ConcurrentTransfers(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.EnsureAccount(ctx, "wallet:a")
	l.EnsureAccount(ctx, "wallet:b")
	SeedBalance(l, "wallet:a", 100_000)
	ledgerImpl := l.(*inMemoryLedger)

	const workers = 10
	const amount = int64(500)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			txID := fmt.Sprintf("tx-%d", i)
			if _, err := l.Transfer(ctx, "wallet:a", "wallet:b", TransferKindP2P, txID, amount); err != nil {
				t.Errorf("transfer %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	total := ledgerImpl.balances["wallet:a"] + ledgerImpl.balances["wallet:b"]
	if total != 100_000 {
		t.Fatalf("ledger not balanced after concurrency, total=%d", total)
	}
}
