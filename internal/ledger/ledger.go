// Package ledger implements the coin economy: premium chapter unlocks,
// admin balance adjustments, and coin package credits. Every balance change
// pairs a conditional profile update with an append-only coin_transactions
// entry inside a single database transaction.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chapterly/webnovel-go-server/internal/db"
	"github.com/chapterly/webnovel-go-server/internal/model"
)

var (
	ErrInsufficientFunds = errors.New("insufficient coins")
	ErrChapterNotFound   = errors.New("chapter not found")
	ErrPackageNotFound   = errors.New("coin package not found")
	ErrProfileNotFound   = errors.New("profile not found")

	// errAlreadyUnlocked signals a duplicate purchase insert; callers see it
	// as a successful no-op, never as a second charge.
	errAlreadyUnlocked = errors.New("chapter already unlocked")
)

// State is the unlock state of a chapter for one user.
type State int

const (
	Locked State = iota
	Unlocked
)

func (s State) String() string {
	if s == Unlocked {
		return "unlocked"
	}
	return "locked"
}

type Service struct {
	DB *db.DB
	// SharePercent is the author's cut of each sale, floored. 70 in
	// production.
	SharePercent int
}

func New(database *db.DB, sharePercent int) *Service {
	return &Service{DB: database, SharePercent: sharePercent}
}

// AuthorShare is the portion of a chapter cost credited to its author,
// truncated toward zero so the platform's remainder is never rounded away.
func (s *Service) AuthorShare(cost int64) int64 {
	return cost * int64(s.SharePercent) / 100
}

// UnlockResult reports what an Unlock call did.
type UnlockResult struct {
	State       State `json:"-"`
	Charged     bool  `json:"charged"`
	CoinAmount  int64 `json:"coin_amount"`
	AuthorShare int64 `json:"author_share"`
	NewBalance  int64 `json:"new_balance"`
}

// Unlock grants the user durable access to a premium chapter, charging their
// balance exactly once.
//
// The buyer side (purchase row, balance debit, buyer ledger entry) commits
// as one transaction: a failed debit rolls back the purchase row, and a
// duplicate purchase row rolls back the debit. The author credit runs
// afterwards as a best-effort unit; its failure parks a row in
// author_credit_queue for replay and never rolls back the buyer.
func (s *Service) Unlock(ctx context.Context, userID, chapterID string) (*UnlockResult, error) {
	chapter, err := s.DB.GetChapter(chapterID)
	if err == sql.ErrNoRows {
		return nil, ErrChapterNotFound
	} else if err != nil {
		return nil, fmt.Errorf("load chapter: %w", err)
	}

	var authorID, novelTitle string
	err = s.DB.QueryRow(`SELECT author_id, title FROM novels WHERE id = ?`, chapter.NovelID).Scan(&authorID, &novelTitle)
	if err != nil {
		return nil, fmt.Errorf("load novel: %w", err)
	}

	// Free chapters and the author's own chapters are always readable.
	if !chapter.IsPremium || authorID == userID {
		return &UnlockResult{State: Unlocked}, nil
	}

	unlocked, err := s.isUnlocked(userID, chapterID)
	if err != nil {
		return nil, err
	}
	if unlocked {
		return &UnlockResult{State: Unlocked}, nil
	}

	cost := chapter.CoinCost
	purchaseID := uuid.NewString()
	res := &UnlockResult{State: Unlocked, Charged: true, CoinAmount: cost, AuthorShare: s.AuthorShare(cost)}

	buyerDesc := fmt.Sprintf("Purchased chapter %d of %q", chapter.ChapterNumber, novelTitle)
	err = s.DB.WithTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().Unix()
		_, err := tx.Exec(
			`INSERT INTO purchases (id, user_id, chapter_id, coin_amount, created_at) VALUES (?, ?, ?, ?, ?)`,
			purchaseID, userID, chapterID, cost, now,
		)
		if isDuplicateErr(err) {
			return errAlreadyUnlocked
		} else if err != nil {
			return fmt.Errorf("record purchase: %w", err)
		}

		// Conditional debit: zero rows affected means the freshest balance
		// cannot cover the cost, so two racing purchases can never drive a
		// balance negative.
		debit, err := tx.Exec(
			`UPDATE profiles SET coins = coins - ?, updated_at = ? WHERE id = ? AND coins >= ?`,
			cost, now, userID, cost,
		)
		if err != nil {
			return fmt.Errorf("debit buyer: %w", err)
		}
		if n, err := debit.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrInsufficientFunds
		}

		if err := appendTransaction(tx, userID, -cost, model.TxPurchase, &chapterID, buyerDesc); err != nil {
			return fmt.Errorf("log buyer transaction: %w", err)
		}

		return tx.QueryRow(`SELECT coins FROM profiles WHERE id = ?`, userID).Scan(&res.NewBalance)
	})
	if errors.Is(err, errAlreadyUnlocked) {
		// Lost a race against another unlock for the same chapter; the other
		// call charged, this one is a no-op.
		return &UnlockResult{State: Unlocked}, nil
	} else if err != nil {
		return nil, err
	}

	// Author credit is deliberately outside the buyer transaction: readers
	// are never punished for a bookkeeping failure on the author side.
	saleDesc := fmt.Sprintf("Sale of chapter %d of %q", chapter.ChapterNumber, novelTitle)
	if err := s.creditAuthor(ctx, authorID, chapterID, res.AuthorShare, saleDesc); err != nil {
		log.Printf("Author credit failed for purchase %s (author %s): %v", purchaseID, authorID, err)
		s.enqueueAuthorCredit(purchaseID, authorID, chapterID, res.AuthorShare, err)
	}

	// Fire-and-forget side effect; failures are logged, never surfaced.
	// View counting happens when the chapter is read, not here.
	if err := s.DB.UpsertReadingHistory(userID, chapter.NovelID, chapterID, nil); err != nil {
		log.Printf("Failed to record reading history for user %s: %v", userID, err)
	}

	return res, nil
}

// State resolves the explicit unlock state for a (user, chapter) pair.
func (s *Service) State(ctx context.Context, userID, chapterID string) (State, error) {
	chapter, err := s.DB.GetChapter(chapterID)
	if err == sql.ErrNoRows {
		return Locked, ErrChapterNotFound
	} else if err != nil {
		return Locked, err
	}
	if !chapter.IsPremium {
		return Unlocked, nil
	}

	if userID != "" {
		var authorID string
		if err := s.DB.QueryRow(`SELECT author_id FROM novels WHERE id = ?`, chapter.NovelID).Scan(&authorID); err != nil {
			return Locked, err
		}
		if authorID == userID {
			return Unlocked, nil
		}
		unlocked, err := s.isUnlocked(userID, chapterID)
		if err != nil {
			return Locked, err
		}
		if unlocked {
			return Unlocked, nil
		}
	}
	return Locked, nil
}

// AdminAdjust credits or debits a user's balance directly. Both writes
// (balance update and ledger entry) commit together or not at all.
// Deductions clamp at the current balance; the ledger records the clamped
// amount so balance and ledger stay consistent. A deduction clamped all the
// way to zero writes nothing.
func (s *Service) AdminAdjust(ctx context.Context, userID string, amount int64, deduct bool, reason string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("adjustment amount must be positive, got %d", amount)
	}

	var newBalance int64
	err := s.DB.WithTx(ctx, func(tx *sql.Tx) error {
		var balance int64
		err := tx.QueryRow(`SELECT coins FROM profiles WHERE id = ?`, userID).Scan(&balance)
		if err == sql.ErrNoRows {
			return ErrProfileNotFound
		} else if err != nil {
			return err
		}

		delta := amount
		txType := model.TxAdminAdd
		if deduct {
			txType = model.TxAdminDeduct
			if delta > balance {
				delta = balance
			}
			delta = -delta
		}
		if delta == 0 {
			// Deducting from an empty balance moves nothing; skip the write
			// and the ledger entry.
			newBalance = balance
			return nil
		}

		res, err := tx.Exec(
			`UPDATE profiles SET coins = coins + ?, updated_at = ? WHERE id = ? AND coins + ? >= 0`,
			delta, time.Now().Unix(), userID, delta,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrInsufficientFunds
		}

		desc := reason
		if desc == "" {
			if deduct {
				desc = "Admin deducted coins"
			} else {
				desc = "Admin added coins"
			}
		}
		if err := appendTransaction(tx, userID, delta, txType, nil, desc); err != nil {
			return err
		}

		return tx.QueryRow(`SELECT coins FROM profiles WHERE id = ?`, userID).Scan(&newBalance)
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// CreditPackage fulfills a coin package purchase: balance credit plus ledger
// entry in one transaction.
func (s *Service) CreditPackage(ctx context.Context, userID, packageID string) (int64, error) {
	pkg, err := s.DB.GetCoinPackage(packageID)
	if err == sql.ErrNoRows {
		return 0, ErrPackageNotFound
	} else if err != nil {
		return 0, err
	}
	if !pkg.IsActive {
		return 0, ErrPackageNotFound
	}

	var newBalance int64
	err = s.DB.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`UPDATE profiles SET coins = coins + ?, updated_at = ? WHERE id = ?`,
			pkg.CoinAmount, time.Now().Unix(), userID,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrProfileNotFound
		}

		desc := fmt.Sprintf("Purchased %q coin package", pkg.Name)
		if err := appendTransaction(tx, userID, pkg.CoinAmount, model.TxCoinPurchase, &pkg.ID, desc); err != nil {
			return err
		}
		return tx.QueryRow(`SELECT coins FROM profiles WHERE id = ?`, userID).Scan(&newBalance)
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (s *Service) isUnlocked(userID, chapterID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id = ? AND chapter_id = ?)`, userID, chapterID).Scan(&exists)
	return exists, err
}

// creditAuthor applies the author leg: balance credit plus "sale" ledger
// entry, atomically. Zero shares still get a ledger entry so authors see
// every sale.
func (s *Service) creditAuthor(ctx context.Context, authorID, chapterID string, share int64, desc string) error {
	return s.DB.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`UPDATE profiles SET coins = coins + ?, updated_at = ? WHERE id = ?`,
			share, time.Now().Unix(), authorID,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrProfileNotFound
		}
		return appendTransaction(tx, authorID, share, model.TxSale, &chapterID, desc)
	})
}

func (s *Service) enqueueAuthorCredit(purchaseID, authorID, chapterID string, amount int64, cause error) {
	msg := cause.Error()
	_, err := s.DB.Exec(
		`INSERT INTO author_credit_queue (id, purchase_id, author_id, chapter_id, amount, attempts, last_error, created_at) VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		uuid.NewString(), purchaseID, authorID, chapterID, amount, msg, time.Now().Unix(),
	)
	if err != nil {
		// Nothing durable left to retry from; the reconciliation report is
		// the purchase row without a matching sale entry.
		log.Printf("Failed to enqueue author credit for purchase %s: %v", purchaseID, err)
	}
}

func appendTransaction(tx *sql.Tx, userID string, amount int64, txType string, referenceID *string, description string) error {
	_, err := tx.Exec(
		`INSERT INTO coin_transactions (id, user_id, amount, transaction_type, reference_id, description, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, amount, txType, referenceID, description, time.Now().Unix(),
	)
	return err
}

func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	// sqlite: "UNIQUE constraint failed", mysql: "Error 1062: Duplicate entry"
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "Duplicate entry")
}
