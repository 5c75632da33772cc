package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/chapterly/webnovel-go-server/internal/model"
)

const maxCreditAttempts = 10

// RunAuthorCreditWorker replays parked author credits on an interval until
// the context is cancelled.
func (s *Service) RunAuthorCreditWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.SettleAuthorCredits(ctx); err != nil {
				log.Printf("Author credit settlement pass failed: %v", err)
			} else if n > 0 {
				log.Printf("Settled %d parked author credit(s)", n)
			}
		}
	}
}

// SettleAuthorCredits retries every unsettled queue entry once, returning
// the number settled. Entries exceeding the attempt limit are left for
// manual reconciliation.
func (s *Service) SettleAuthorCredits(ctx context.Context) (int, error) {
	pending, err := s.pendingAuthorCredits()
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, credit := range pending {
		desc := fmt.Sprintf("Sale of chapter (replayed credit for purchase %s)", credit.PurchaseID)
		err := s.creditAuthor(ctx, credit.AuthorID, credit.ChapterID, credit.Amount, desc)
		if err != nil {
			msg := err.Error()
			if _, uerr := s.DB.Exec(
				`UPDATE author_credit_queue SET attempts = attempts + 1, last_error = ? WHERE id = ?`,
				msg, credit.ID,
			); uerr != nil {
				log.Printf("Failed to record credit attempt %s: %v", credit.ID, uerr)
			}
			continue
		}

		if _, err := s.DB.Exec(
			`UPDATE author_credit_queue SET settled_at = ?, attempts = attempts + 1 WHERE id = ?`,
			time.Now().Unix(), credit.ID,
		); err != nil {
			// Credit applied but not marked; the next pass would double-pay,
			// so this is worth a loud log line.
			log.Printf("Credit %s applied but not marked settled: %v", credit.ID, err)
			continue
		}
		settled++
	}
	return settled, nil
}

func (s *Service) pendingAuthorCredits() ([]model.AuthorCredit, error) {
	rows, err := s.DB.Query(
		`SELECT id, purchase_id, author_id, chapter_id, amount, attempts, last_error, created_at, settled_at
		FROM author_credit_queue WHERE settled_at IS NULL AND attempts < ? ORDER BY created_at`,
		maxCreditAttempts,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []model.AuthorCredit
	for rows.Next() {
		var c model.AuthorCredit
		var lastErr sql.NullString
		var settledAt sql.NullInt64
		if err := rows.Scan(&c.ID, &c.PurchaseID, &c.AuthorID, &c.ChapterID, &c.Amount, &c.Attempts, &lastErr, &c.CreatedAt, &settledAt); err != nil {
			return nil, err
		}
		if lastErr.Valid {
			c.LastError = &lastErr.String
		}
		if settledAt.Valid {
			c.SettledAt = &settledAt.Int64
		}
		pending = append(pending, c)
	}
	return pending, rows.Err()
}
