package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/chapterly/webnovel-go-server/internal/model"
)

// AddBookmark inserts a bookmark and bumps the novel's bookmark counter in
// one transaction. Adding an existing bookmark is a no-op.
func (db *DB) AddBookmark(userID, novelID string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt := `INSERT OR IGNORE INTO bookmarks (id, user_id, novel_id, created_at) VALUES (?, ?, ?, ?)`
	if db.isMySQL() {
		stmt = `INSERT IGNORE INTO bookmarks (id, user_id, novel_id, created_at) VALUES (?, ?, ?, ?)`
	}
	res, err := tx.Exec(stmt, uuid.NewString(), userID, novelID, time.Now().Unix())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return err
	}
	if _, err := tx.Exec(`UPDATE novels SET bookmarks = bookmarks + 1 WHERE id = ?`, novelID); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *DB) RemoveBookmark(userID, novelID string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM bookmarks WHERE user_id = ? AND novel_id = ?`, userID, novelID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return err
	}
	dec := `UPDATE novels SET bookmarks = MAX(bookmarks - 1, 0) WHERE id = ?`
	if db.isMySQL() {
		dec = `UPDATE novels SET bookmarks = GREATEST(bookmarks - 1, 0) WHERE id = ?`
	}
	if _, err := tx.Exec(dec, novelID); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *DB) ListBookmarks(userID string) ([]model.Bookmark, error) {
	rows, err := db.Query(
		`SELECT b.id, b.novel_id, b.created_at, `+novelColumns+` FROM bookmarks b JOIN novels n ON n.id = b.novel_id WHERE b.user_id = ? ORDER BY b.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookmarks []model.Bookmark
	for rows.Next() {
		var b model.Bookmark
		var n model.Novel
		b.UserID = userID
		err := rows.Scan(
			&b.ID, &b.NovelID, &b.CreatedAt,
			&n.ID, &n.AuthorID, &n.Title, &n.Description, &n.CoverImage, &n.Status,
			&n.Rating, &n.Views, &n.Bookmarks, &n.CreatedAt, &n.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		b.Novel = &n
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

func (db *DB) IsBookmarked(userID, novelID string) (bool, error) {
	var exists bool
	err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM bookmarks WHERE user_id = ? AND novel_id = ?)`, userID, novelID).Scan(&exists)
	return exists, err
}

// UpsertRating creates or replaces the user's rating for a novel.
func (db *DB) UpsertRating(userID, novelID string, rating int, comment *string) error {
	now := time.Now().Unix()
	stmt := `INSERT INTO novel_ratings (id, user_id, novel_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, novel_id) DO UPDATE SET rating=excluded.rating, comment=excluded.comment, updated_at=?`
	if db.isMySQL() {
		stmt = `INSERT INTO novel_ratings (id, user_id, novel_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE rating=VALUES(rating), comment=VALUES(comment), updated_at=?`
	}
	_, err := db.Exec(stmt, uuid.NewString(), userID, novelID, rating, comment, now, now)
	return err
}

func (db *DB) GetRating(userID, novelID string) (*model.NovelRating, error) {
	var r model.NovelRating
	row := db.QueryRow(
		`SELECT id, user_id, novel_id, rating, comment, created_at, updated_at FROM novel_ratings WHERE user_id = ? AND novel_id = ?`,
		userID, novelID,
	)
	err := row.Scan(&r.ID, &r.UserID, &r.NovelID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpsertReadingHistory records that the user read a chapter, keeping one row
// per (user, chapter).
func (db *DB) UpsertReadingHistory(userID, novelID, chapterID string, lastPosition *float64) error {
	now := time.Now().Unix()
	stmt := `INSERT INTO reading_history (id, user_id, novel_id, chapter_id, last_position, read_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, chapter_id) DO UPDATE SET last_position=excluded.last_position, read_at=excluded.read_at`
	if db.isMySQL() {
		stmt = `INSERT INTO reading_history (id, user_id, novel_id, chapter_id, last_position, read_at) VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE last_position=VALUES(last_position), read_at=VALUES(read_at)`
	}
	_, err := db.Exec(stmt, uuid.NewString(), userID, novelID, chapterID, lastPosition, now)
	return err
}

func (db *DB) ListReadingHistory(userID string) ([]model.ReadingHistory, error) {
	rows, err := db.Query(
		`SELECT id, user_id, novel_id, chapter_id, last_position, read_at FROM reading_history WHERE user_id = ? ORDER BY read_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []model.ReadingHistory
	for rows.Next() {
		var h model.ReadingHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.NovelID, &h.ChapterID, &h.LastPosition, &h.ReadAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
