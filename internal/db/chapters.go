package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/chapterly/webnovel-go-server/internal/model"
)

const chapterColumns = `id, novel_id, chapter_number, title, content, is_premium, coin_cost, views, created_at, updated_at`

func scanChapter(row interface{ Scan(...any) error }) (*model.Chapter, error) {
	var c model.Chapter
	err := row.Scan(
		&c.ID, &c.NovelID, &c.ChapterNumber, &c.Title, &c.Content,
		&c.IsPremium, &c.CoinCost, &c.Views, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) CreateChapter(novelID string, chapterNumber int, title, content string, isPremium bool, coinCost int64) (*model.Chapter, error) {
	now := time.Now().Unix()
	c := &model.Chapter{
		ID:            uuid.NewString(),
		NovelID:       novelID,
		ChapterNumber: chapterNumber,
		Title:         title,
		Content:       content,
		IsPremium:     isPremium,
		CoinCost:      coinCost,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err := db.Exec(
		`INSERT INTO chapters (id, novel_id, chapter_number, title, content, is_premium, coin_cost, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.NovelID, c.ChapterNumber, c.Title, c.Content, c.IsPremium, c.CoinCost, now, now,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (db *DB) GetChapter(id string) (*model.Chapter, error) {
	row := db.QueryRow(`SELECT `+chapterColumns+` FROM chapters WHERE id = ?`, id)
	return scanChapter(row)
}

// ListChapters returns a novel's chapters without content, ordered by number.
func (db *DB) ListChapters(novelID string) ([]model.Chapter, error) {
	rows, err := db.Query(
		`SELECT id, novel_id, chapter_number, title, is_premium, coin_cost, views, created_at, updated_at FROM chapters WHERE novel_id = ? ORDER BY chapter_number`,
		novelID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []model.Chapter
	for rows.Next() {
		var c model.Chapter
		err := rows.Scan(
			&c.ID, &c.NovelID, &c.ChapterNumber, &c.Title,
			&c.IsPremium, &c.CoinCost, &c.Views, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

// SiblingChapters returns the previous and next chapter ids around the given
// chapter number, for reader navigation. Either may be empty.
func (db *DB) SiblingChapters(novelID string, chapterNumber int) (prev, next string, err error) {
	err = db.QueryRow(
		`SELECT COALESCE((SELECT id FROM chapters WHERE novel_id = ? AND chapter_number < ? ORDER BY chapter_number DESC LIMIT 1), '')`,
		novelID, chapterNumber,
	).Scan(&prev)
	if err != nil {
		return "", "", err
	}
	err = db.QueryRow(
		`SELECT COALESCE((SELECT id FROM chapters WHERE novel_id = ? AND chapter_number > ? ORDER BY chapter_number LIMIT 1), '')`,
		novelID, chapterNumber,
	).Scan(&next)
	return prev, next, err
}

func (db *DB) UpdateChapter(id, title, content string, isPremium bool, coinCost int64) error {
	_, err := db.Exec(
		`UPDATE chapters SET title = ?, content = ?, is_premium = ?, coin_cost = ?, updated_at = ? WHERE id = ?`,
		title, content, isPremium, coinCost, time.Now().Unix(), id,
	)
	return err
}

func (db *DB) DeleteChapter(id string) error {
	_, err := db.Exec(`DELETE FROM chapters WHERE id = ?`, id)
	return err
}

func (db *DB) IncrementChapterViews(id string) error {
	_, err := db.Exec(`UPDATE chapters SET views = views + 1 WHERE id = ?`, id)
	return err
}
