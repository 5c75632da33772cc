package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/chapterly/webnovel-go-server/internal/testutil"
)

func TestUnlockMySQL(t *testing.T) {
	database := testutil.SetupMySQLTestDB(t)
	svc := New(database, 70)
	ctx := context.Background()

	author := testutil.SeedUser(t, database, "author@example.com", "author", 0)
	reader := testutil.SeedUser(t, database, "reader@example.com", "reader", 100)
	novel := testutil.SeedNovel(t, database, author.ID, "Ash and Ember")
	chapter := testutil.SeedChapter(t, database, novel.ID, 1, 30)

	res, err := svc.Unlock(ctx, reader.ID, chapter.ID)
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if !res.Charged || res.NewBalance != 70 || res.AuthorShare != 21 {
		t.Errorf("Unexpected unlock result: %+v", res)
	}

	// Repeat unlock is a no-op; the purchase row already exists.
	res, err = svc.Unlock(ctx, reader.ID, chapter.ID)
	if err != nil {
		t.Fatalf("Repeat unlock failed: %v", err)
	}
	if res.Charged {
		t.Error("Repeat unlock must not charge")
	}

	if got := balance(t, database, author.ID); got != 21 {
		t.Errorf("Expected author balance 21, got %d", got)
	}
}

func TestUnlockInsufficientFundsMySQL(t *testing.T) {
	database := testutil.SetupMySQLTestDB(t)
	svc := New(database, 70)

	author := testutil.SeedUser(t, database, "author@example.com", "author", 0)
	reader := testutil.SeedUser(t, database, "reader@example.com", "reader", 10)
	novel := testutil.SeedNovel(t, database, author.ID, "Ash and Ember")
	chapter := testutil.SeedChapter(t, database, novel.ID, 1, 30)

	_, err := svc.Unlock(context.Background(), reader.ID, chapter.ID)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}
	if got := balance(t, database, reader.ID); got != 10 {
		t.Errorf("Expected balance unchanged at 10, got %d", got)
	}
	if n := countPurchases(t, database, reader.ID, chapter.ID); n != 0 {
		t.Errorf("Expected no purchase row, got %d", n)
	}
}
