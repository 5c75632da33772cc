package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/chapterly/webnovel-go-server/internal/db"
	"github.com/chapterly/webnovel-go-server/internal/model"
	"github.com/chapterly/webnovel-go-server/internal/testutil"
)

func setupService(t *testing.T) (*Service, *db.DB) {
	t.Helper()
	database := testutil.SetupTestDB(t)
	return New(database, 70), database
}

func balance(t *testing.T, database *db.DB, userID string) int64 {
	t.Helper()
	coins, err := database.GetCoinBalance(userID)
	if err != nil {
		t.Fatalf("Failed to get balance: %v", err)
	}
	return coins
}

func transactions(t *testing.T, database *db.DB, userID string) []model.CoinTransaction {
	t.Helper()
	txs, err := database.ListCoinTransactions(userID, 100)
	if err != nil {
		t.Fatalf("Failed to list transactions: %v", err)
	}
	return txs
}

func countPurchases(t *testing.T, database *db.DB, userID, chapterID string) int {
	t.Helper()
	var n int
	err := database.QueryRow(
		`SELECT COUNT(*) FROM purchases WHERE user_id = ? AND chapter_id = ?`,
		userID, chapterID,
	).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to count purchases: %v", err)
	}
	return n
}

func TestUnlockPremiumChapter(t *testing.T) {
	svc, database := setupService(t)
	ctx := context.Background()

	author := testutil.SeedUser(t, database, "author@example.com", "author", 0)
	reader := testutil.SeedUser(t, database, "reader@example.com", "reader", 100)
	novel := testutil.SeedNovel(t, database, author.ID, "Ash and Ember")
	chapter := testutil.SeedChapter(t, database, novel.ID, 1, 30)

	res, err := svc.Unlock(ctx, reader.ID, chapter.ID)
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if !res.Charged {
		t.Error("Expected unlock to charge the reader")
	}
	if res.CoinAmount != 30 {
		t.Errorf("Expected coin amount 30, got %d", res.CoinAmount)
	}
	if res.AuthorShare != 21 {
		t.Errorf("Expected author share 21, got %d", res.AuthorShare)
	}
	if res.NewBalance != 70 {
		t.Errorf("Expected new balance 70, got %d", res.NewBalance)
	}

	if got := balance(t, database, reader.ID); got != 70 {
		t.Errorf("Expected reader balance 70, got %d", got)
	}
	if got := balance(t, database, author.ID); got != 21 {
		t.Errorf("Expected author balance 21, got %d", got)
	}
	if n := countPurchases(t, database, reader.ID, chapter.ID); n != 1 {
		t.Errorf("Expected 1 purchase row, got %d", n)
	}

	readerTxs := transactions(t, database, reader.ID)
	if len(readerTxs) != 1 {
		t.Fatalf("Expected 1 reader transaction, got %d", len(readerTxs))
	}
	if readerTxs[0].Amount != -30 || readerTxs[0].TransactionType != model.TxPurchase {
		t.Errorf("Unexpected reader entry: amount=%d type=%s", readerTxs[0].Amount, readerTxs[0].TransactionType)
	}
	if readerTxs[0].ReferenceID == nil || *readerTxs[0].ReferenceID != chapter.ID {
		t.Error("Expected reader entry to reference the chapter")
	}

	authorTxs := transactions(t, database, author.ID)
	if len(authorTxs) != 1 {
		t.Fatalf("Expected 1 author transaction, got %d", len(authorTxs))
	}
	if authorTxs[0].Amount != 21 || authorTxs[0].TransactionType != model.TxSale {
		t.Errorf("Unexpected author entry: amount=%d type=%s", authorTxs[0].Amount, authorTxs[0].TransactionType)
	}
}

func TestUnlockIsIdempotent(t *testing.T) {
	svc, database := setupService(t)
	ctx := context.Background()

	author := testutil.SeedUser(t, database, "author@example.com", "author", 0)
	reader := testutil.SeedUser(t, database, "reader@example.com", "reader", 100)
	novel := testutil.SeedNovel(t, database, author.ID, "Ash and Ember")
	chapter := testutil.SeedChapter(t, database, novel.ID, 1, 30)

	if _, err := svc.Unlock(ctx, reader.ID, chapter.ID); err != nil {
		t.Fatalf("First unlock failed: %v", err)
	}
	res, err := svc.Unlock(ctx, reader.ID, chapter.ID)
	if err != nil {
		t.Fatalf("Second unlock failed: %v", err)
	}
	if res.Charged {
		t.Error("Expected repeat unlock to be a free no-op")
	}

	if got := balance(t, database, reader.ID); got != 70 {
		t.Errorf("Expected balance 70 after repeat unlock, got %d", got)
	}
	if n := countPurchases(t, database, reader.ID, chapter.ID); n != 1 {
		t.Errorf("Expected 1 purchase row after repeat unlock, got %d", n)
	}
	if txs := transactions(t, database, reader.ID); len(txs) != 1 {
		t.Errorf("Expected 1 reader transaction after repeat unlock, got %d", len(txs))
	}
}

func TestUnlockFreeChapter(t *testing.T) {
	svc, database := setupService(t)

	author := testutil.SeedUser(t, database, "author@example.com", "author", 0)
	reader := testutil.SeedUser(t, database, "reader@example.com", "reader", 50)
	novel := testutil.SeedNovel(t, database, author.ID, "Ash and Ember")
	chapter := testutil.SeedChapter(t, database, novel.ID, 1, 0)

	res, err := svc.Unlock(context.Background(), reader.ID, chapter.ID)
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if res.Charged {
		t.Error("Free chapter should not charge")
	}
	if got := balance(t, database, reader.ID); got != 50 {
		t.Errorf("Expected balance unchanged at 50, got %d", got)
	}
	if txs := transactions(t, database, reader.ID); len(txs) != 0 {
		t.Errorf("Expected no transactions, got %d", len(txs))
	}
}

func TestUnlockOwnChapter(t *testing.T) {
	svc, database := setupService(t)

	author := testutil.SeedUser(t, database, "author@example.com", "author", 5)
	novel := testutil.SeedNovel(t, database, author.ID, "Ash and Ember")
	chapter := testutil.SeedChapter(t, database, novel.ID, 1, 30)

	res, err := svc.Unlock(context.Background(), author.ID, chapter.ID)
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if res.Charged {
		t.Error("Authors should read their own chapters for free")
	}
	if got := balance(t, database, author.ID); got != 5 {
		t.Errorf("Expected author balance unchanged at 5, got %d", got)
	}
}

func TestUnlockInsufficientFunds(t *testing.T) {
	svc, database := setupService(t)

	author := testutil.SeedUser(t, database, "author@example.com", "author", 0)
	reader := testutil.SeedUser(t, database, "reader@example.com", "reader", 10)
	novel := testutil.SeedNovel(t, database, author.ID, "Ash and Ember")
	chapter := testutil.SeedChapter(t, database, novel.ID, 1, 30)

	_, err := svc.Unlock(context.Background(), reader.ID, chapter.ID)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}

	// The failed debit must roll back the whole buyer unit.
	if got := balance(t, database, reader.ID); got != 10 {
		t.Errorf("Expected balance unchanged at 10, got %d", got)
	}
	if got := balance(t, database, author.ID); got != 0 {
		t.Errorf("Expected author balance unchanged at 0, got %d", got)
	}
	if n := countPurchases(t, database, reader.ID, chapter.ID); n != 0 {
		t.Errorf("Expected no purchase row, got %d", n)
	}
	if txs := transactions(t, database, reader.ID); len(txs) != 0 {
		t.Errorf("Expected no transactions, got %d", len(txs))
	}
}

func TestUnlockChapterNotFound(t *testing.T) {
	svc, database := setupService(t)
	reader := testutil.SeedUser(t, database, "reader@example.com", "reader", 10)

	_, err := svc.Unlock(context.Background(), reader.ID, "missing-chapter")
	if !errors.Is(err, ErrChapterNotFound) {
		t.Fatalf("Expected ErrChapterNotFound, got %v", err)
	}
}

func TestUnlockNeverOverdraws(t *testing.T) {
	svc, database := setupService(t)
	ctx := context.Background()

	author := testutil.SeedUser(t, database, "author@example.com", "author", 0)
	reader := testutil.SeedUser(t, database, "reader@example.com", "reader", 30)
	novel := testutil.SeedNovel(t, database, author.ID, "Ash and Ember")
	ch1 := testutil.SeedChapter(t, database, novel.ID, 1, 20)
	ch2 := testutil.SeedChapter(t, database, novel.ID, 2, 20)

	if _, err := svc.Unlock(ctx, reader.ID, ch1.ID); err != nil {
		t.Fatalf("First unlock failed: %v", err)
	}
	_, err := svc.Unlock(ctx, reader.ID, ch2.ID)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds on second unlock, got %v", err)
	}

	if got := balance(t, database, reader.ID); got != 10 {
		t.Errorf("Expected balance 10, got %d", got)
	}
	if n := countPurchases(t, database, reader.ID, ch2.ID); n != 0 {
		t.Errorf("Expected no purchase row for second chapter, got %d", n)
	}
}

func TestUnlockConcurrentDoubleClick(t *testing.T) {
	svc, database := setupService(t)
	ctx := context.Background()

	author := testutil.SeedUser(t, database, "author@example.com", "author", 0)
	reader := testutil.SeedUser(t, database, "reader@example.com", "reader", 30)
	novel := testutil.SeedNovel(t, database, author.ID, "Ash and Ember")
	chapter := testutil.SeedChapter(t, database, novel.ID, 1, 30)

	// Two in-flight unlocks for the same chapter, as from a double-click.
	// The purchase INSERT decides the winner; the loser sees a no-op.
	start := make(chan struct{})
	results := make([]*UnlockResult, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = svc.Unlock(ctx, reader.ID, chapter.ID)
		}(i)
	}
	close(start)
	wg.Wait()

	charged := 0
	for i := 0; i < 2; i++ {
		if errs[i] != nil {
			t.Fatalf("Unlock %d failed: %v", i, errs[i])
		}
		if results[i].Charged {
			charged++
		}
	}
	if charged != 1 {
		t.Errorf("Expected exactly one charged unlock, got %d", charged)
	}
	if got := balance(t, database, reader.ID); got != 0 {
		t.Errorf("Expected balance 0, got %d", got)
	}
	if n := countPurchases(t, database, reader.ID, chapter.ID); n != 1 {
		t.Errorf("Expected one purchase row, got %d", n)
	}
	txs := transactions(t, database, reader.ID)
	if len(txs) != 1 || txs[0].Amount != -30 {
		t.Errorf("Expected a single -30 ledger entry, got %+v", txs)
	}
}

func TestAuthorShare(t *testing.T) {
	svc := &Service{SharePercent: 70}

	cases := []struct {
		cost int64
		want int64
	}{
		{100, 70},
		{30, 21},
		{15, 10},
		{10, 7},
		{3, 2},
		{1, 0},
		{0, 0},
	}
	for _, c := range cases {
		if got := svc.AuthorShare(c.cost); got != c.want {
			t.Errorf("AuthorShare(%d) = %d, want %d", c.cost, got, c.want)
		}
	}
}

func TestState(t *testing.T) {
	svc, database := setupService(t)
	ctx := context.Background()

	author := testutil.SeedUser(t, database, "author@example.com", "author", 0)
	reader := testutil.SeedUser(t, database, "reader@example.com", "reader", 100)
	novel := testutil.SeedNovel(t, database, author.ID, "Ash and Ember")
	free := testutil.SeedChapter(t, database, novel.ID, 1, 0)
	premium := testutil.SeedChapter(t, database, novel.ID, 2, 30)

	if st, err := svc.State(ctx, "", free.ID); err != nil || st != Unlocked {
		t.Errorf("Free chapter for anonymous: got %v, %v", st, err)
	}
	if st, err := svc.State(ctx, "", premium.ID); err != nil || st != Locked {
		t.Errorf("Premium chapter for anonymous: got %v, %v", st, err)
	}
	if st, err := svc.State(ctx, reader.ID, premium.ID); err != nil || st != Locked {
		t.Errorf("Premium chapter before purchase: got %v, %v", st, err)
	}
	if st, err := svc.State(ctx, author.ID, premium.ID); err != nil || st != Unlocked {
		t.Errorf("Premium chapter for its author: got %v, %v", st, err)
	}

	if _, err := svc.Unlock(ctx, reader.ID, premium.ID); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if st, err := svc.State(ctx, reader.ID, premium.ID); err != nil || st != Unlocked {
		t.Errorf("Premium chapter after purchase: got %v, %v", st, err)
	}

	if _, err := svc.State(ctx, reader.ID, "missing"); !errors.Is(err, ErrChapterNotFound) {
		t.Errorf("Expected ErrChapterNotFound, got %v", err)
	}
}

func TestAdminAdjust(t *testing.T) {
	svc, database := setupService(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, database, "user@example.com", "user", 0)

	newBalance, err := svc.AdminAdjust(ctx, user.ID, 50, false, "promo grant")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if newBalance != 50 {
		t.Errorf("Expected balance 50, got %d", newBalance)
	}

	newBalance, err = svc.AdminAdjust(ctx, user.ID, 30, true, "refund reversal")
	if err != nil {
		t.Fatalf("Deduct failed: %v", err)
	}
	if newBalance != 20 {
		t.Errorf("Expected balance 20, got %d", newBalance)
	}

	txs := transactions(t, database, user.ID)
	if len(txs) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(txs))
	}
	var sum int64
	for _, tx := range txs {
		sum += tx.Amount
	}
	if sum != 20 {
		t.Errorf("Expected ledger sum 20, got %d", sum)
	}
}

func TestAdminAdjustClampsDeduction(t *testing.T) {
	svc, database := setupService(t)

	user := testutil.SeedUser(t, database, "user@example.com", "user", 20)

	newBalance, err := svc.AdminAdjust(context.Background(), user.ID, 100, true, "")
	if err != nil {
		t.Fatalf("Deduct failed: %v", err)
	}
	if newBalance != 0 {
		t.Errorf("Expected balance clamped to 0, got %d", newBalance)
	}

	txs := transactions(t, database, user.ID)
	if len(txs) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Amount != -20 || txs[0].TransactionType != model.TxAdminDeduct {
		t.Errorf("Expected clamped entry of -20, got amount=%d type=%s", txs[0].Amount, txs[0].TransactionType)
	}
}

func TestAdminAdjustDeductFromEmptyBalance(t *testing.T) {
	svc, database := setupService(t)

	user := testutil.SeedUser(t, database, "user@example.com", "user", 0)

	newBalance, err := svc.AdminAdjust(context.Background(), user.ID, 50, true, "")
	if err != nil {
		t.Fatalf("Deduct failed: %v", err)
	}
	if newBalance != 0 {
		t.Errorf("Expected balance 0, got %d", newBalance)
	}
	if txs := transactions(t, database, user.ID); len(txs) != 0 {
		t.Errorf("Expected no ledger entry for a fully clamped deduction, got %d", len(txs))
	}
}

func TestAdminAdjustValidation(t *testing.T) {
	svc, database := setupService(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, database, "user@example.com", "user", 0)

	if _, err := svc.AdminAdjust(ctx, user.ID, 0, false, ""); err == nil {
		t.Error("Expected error for zero amount")
	}
	if _, err := svc.AdminAdjust(ctx, user.ID, -5, false, ""); err == nil {
		t.Error("Expected error for negative amount")
	}
	if _, err := svc.AdminAdjust(ctx, "missing-user", 10, false, ""); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound, got %v", err)
	}
}

func TestCreditPackage(t *testing.T) {
	svc, database := setupService(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, database, "user@example.com", "user", 10)
	pkg, err := database.CreateCoinPackage("Starter", 500, 4.99, "USD", nil, true, false)
	if err != nil {
		t.Fatalf("Failed to create package: %v", err)
	}

	newBalance, err := svc.CreditPackage(ctx, user.ID, pkg.ID)
	if err != nil {
		t.Fatalf("CreditPackage failed: %v", err)
	}
	if newBalance != 510 {
		t.Errorf("Expected balance 510, got %d", newBalance)
	}

	txs := transactions(t, database, user.ID)
	if len(txs) != 1 {
		t.Fatalf("Expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Amount != 500 || txs[0].TransactionType != model.TxCoinPurchase {
		t.Errorf("Unexpected entry: amount=%d type=%s", txs[0].Amount, txs[0].TransactionType)
	}
	if txs[0].ReferenceID == nil || *txs[0].ReferenceID != pkg.ID {
		t.Error("Expected entry to reference the package")
	}
}

func TestCreditPackageInactive(t *testing.T) {
	svc, database := setupService(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, database, "user@example.com", "user", 0)
	pkg, err := database.CreateCoinPackage("Retired", 100, 0.99, "USD", nil, false, false)
	if err != nil {
		t.Fatalf("Failed to create package: %v", err)
	}

	if _, err := svc.CreditPackage(ctx, user.ID, pkg.ID); !errors.Is(err, ErrPackageNotFound) {
		t.Errorf("Expected ErrPackageNotFound for inactive package, got %v", err)
	}
	if _, err := svc.CreditPackage(ctx, user.ID, "missing-package"); !errors.Is(err, ErrPackageNotFound) {
		t.Errorf("Expected ErrPackageNotFound for missing package, got %v", err)
	}
	if got := balance(t, database, user.ID); got != 0 {
		t.Errorf("Expected balance unchanged at 0, got %d", got)
	}
}
