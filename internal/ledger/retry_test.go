package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chapterly/webnovel-go-server/internal/db"
	"github.com/chapterly/webnovel-go-server/internal/model"
	"github.com/chapterly/webnovel-go-server/internal/testutil"
)

func enqueueCredit(t *testing.T, database *db.DB, authorID, chapterID string, amount int64, attempts int) string {
	t.Helper()
	id := uuid.NewString()
	_, err := database.Exec(
		`INSERT INTO author_credit_queue (id, purchase_id, author_id, chapter_id, amount, attempts, last_error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, uuid.NewString(), authorID, chapterID, amount, attempts, "credit author: boom", time.Now().Unix(),
	)
	if err != nil {
		t.Fatalf("Failed to enqueue credit: %v", err)
	}
	return id
}

func TestSettleAuthorCredits(t *testing.T) {
	svc, database := setupService(t)

	author := testutil.SeedUser(t, database, "author@example.com", "author", 0)
	novel := testutil.SeedNovel(t, database, author.ID, "Ash and Ember")
	chapter := testutil.SeedChapter(t, database, novel.ID, 1, 30)

	id := enqueueCredit(t, database, author.ID, chapter.ID, 21, 1)

	settled, err := svc.SettleAuthorCredits(context.Background())
	if err != nil {
		t.Fatalf("Settlement pass failed: %v", err)
	}
	if settled != 1 {
		t.Fatalf("Expected 1 settled credit, got %d", settled)
	}

	if got := balance(t, database, author.ID); got != 21 {
		t.Errorf("Expected author balance 21, got %d", got)
	}
	txs := transactions(t, database, author.ID)
	if len(txs) != 1 {
		t.Fatalf("Expected 1 author transaction, got %d", len(txs))
	}
	if txs[0].Amount != 21 || txs[0].TransactionType != model.TxSale {
		t.Errorf("Unexpected entry: amount=%d type=%s", txs[0].Amount, txs[0].TransactionType)
	}

	var settledAt *int64
	if err := database.QueryRow(`SELECT settled_at FROM author_credit_queue WHERE id = ?`, id).Scan(&settledAt); err != nil {
		t.Fatalf("Failed to read queue entry: %v", err)
	}
	if settledAt == nil {
		t.Error("Expected queue entry to be marked settled")
	}

	// A settled entry must never be paid twice.
	settled, err = svc.SettleAuthorCredits(context.Background())
	if err != nil {
		t.Fatalf("Second settlement pass failed: %v", err)
	}
	if settled != 0 {
		t.Errorf("Expected 0 settled credits on second pass, got %d", settled)
	}
	if got := balance(t, database, author.ID); got != 21 {
		t.Errorf("Expected author balance still 21, got %d", got)
	}
}

func TestSettleAuthorCreditsFailure(t *testing.T) {
	svc, database := setupService(t)

	id := enqueueCredit(t, database, "missing-author", "missing-chapter", 21, 1)

	settled, err := svc.SettleAuthorCredits(context.Background())
	if err != nil {
		t.Fatalf("Settlement pass failed: %v", err)
	}
	if settled != 0 {
		t.Errorf("Expected 0 settled credits, got %d", settled)
	}

	var attempts int
	var lastError *string
	if err := database.QueryRow(`SELECT attempts, last_error FROM author_credit_queue WHERE id = ?`, id).Scan(&attempts, &lastError); err != nil {
		t.Fatalf("Failed to read queue entry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected attempts 2, got %d", attempts)
	}
	if lastError == nil || *lastError == "" {
		t.Error("Expected last_error to be recorded")
	}
}

func TestSettleAuthorCreditsAttemptLimit(t *testing.T) {
	svc, database := setupService(t)

	author := testutil.SeedUser(t, database, "author@example.com", "author", 0)
	novel := testutil.SeedNovel(t, database, author.ID, "Ash and Ember")
	chapter := testutil.SeedChapter(t, database, novel.ID, 1, 30)

	enqueueCredit(t, database, author.ID, chapter.ID, 21, maxCreditAttempts)

	settled, err := svc.SettleAuthorCredits(context.Background())
	if err != nil {
		t.Fatalf("Settlement pass failed: %v", err)
	}
	if settled != 0 {
		t.Errorf("Expected exhausted entry to be skipped, got %d settled", settled)
	}
	if got := balance(t, database, author.ID); got != 0 {
		t.Errorf("Expected author balance unchanged at 0, got %d", got)
	}
}

func TestUnlockParksFailedAuthorCredit(t *testing.T) {
	svc, database := setupService(t)
	ctx := context.Background()

	author := testutil.SeedUser(t, database, "author@example.com", "author", 0)
	reader := testutil.SeedUser(t, database, "reader@example.com", "reader", 100)
	novel := testutil.SeedNovel(t, database, author.ID, "Ash and Ember")
	chapter := testutil.SeedChapter(t, database, novel.ID, 1, 30)

	// Break the author leg without touching the buyer leg. The novel still
	// points at the author row, so the delete needs foreign keys off.
	conn, err := database.Conn(ctx)
	if err != nil {
		t.Fatalf("Failed to get connection: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		t.Fatalf("Failed to disable foreign keys: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, author.ID); err != nil {
		t.Fatalf("Failed to delete author: %v", err)
	}
	conn.Close()

	res, err := svc.Unlock(ctx, reader.ID, chapter.ID)
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if !res.Charged || res.NewBalance != 70 {
		t.Errorf("Expected buyer side to commit despite author failure, got charged=%v balance=%d", res.Charged, res.NewBalance)
	}
	if n := countPurchases(t, database, reader.ID, chapter.ID); n != 1 {
		t.Errorf("Expected 1 purchase row, got %d", n)
	}

	var queued int
	if err := database.QueryRow(`SELECT COUNT(*) FROM author_credit_queue WHERE author_id = ? AND settled_at IS NULL`, author.ID).Scan(&queued); err != nil {
		t.Fatalf("Failed to count queue entries: %v", err)
	}
	if queued != 1 {
		t.Errorf("Expected 1 parked author credit, got %d", queued)
	}

	// Restore the author; the worker pass pays the parked share.
	if _, err := database.Exec(
		`INSERT INTO profiles (id, email, password_hash, username, coins, is_admin, created_at, updated_at) VALUES (?, ?, ?, ?, 0, 0, ?, ?)`,
		author.ID, "author@example.com", "dummyhash", "author", time.Now().Unix(), time.Now().Unix(),
	); err != nil {
		t.Fatalf("Failed to restore author: %v", err)
	}

	settled, err := svc.SettleAuthorCredits(ctx)
	if err != nil {
		t.Fatalf("Settlement pass failed: %v", err)
	}
	if settled != 1 {
		t.Fatalf("Expected 1 settled credit, got %d", settled)
	}
	if got := balance(t, database, author.ID); got != 21 {
		t.Errorf("Expected author balance 21 after replay, got %d", got)
	}
}
