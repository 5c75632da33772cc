package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/chapterly/webnovel-go-server/internal/model"
)

const novelColumns = `n.id, n.author_id, n.title, n.description, n.cover_image, n.status, n.rating, n.views, n.bookmarks, n.created_at, n.updated_at`

func scanNovel(row interface{ Scan(...any) error }) (*model.Novel, error) {
	var n model.Novel
	err := row.Scan(
		&n.ID, &n.AuthorID, &n.Title, &n.Description, &n.CoverImage, &n.Status,
		&n.Rating, &n.Views, &n.Bookmarks, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (db *DB) CreateNovel(authorID, title string, description, coverImage *string, status string) (*model.Novel, error) {
	now := time.Now().Unix()
	n := &model.Novel{
		ID:          uuid.NewString(),
		AuthorID:    authorID,
		Title:       title,
		Description: description,
		CoverImage:  coverImage,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := db.Exec(
		`INSERT INTO novels (id, author_id, title, description, cover_image, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.AuthorID, n.Title, n.Description, n.CoverImage, n.Status, now, now,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (db *DB) GetNovel(id string) (*model.Novel, error) {
	row := db.QueryRow(`SELECT `+novelColumns+`, p.username, p.display_name FROM novels n JOIN profiles p ON p.id = n.author_id WHERE n.id = ?`, id)

	var n model.Novel
	var username string
	var displayName *string
	err := row.Scan(
		&n.ID, &n.AuthorID, &n.Title, &n.Description, &n.CoverImage, &n.Status,
		&n.Rating, &n.Views, &n.Bookmarks, &n.CreatedAt, &n.UpdatedAt,
		&username, &displayName,
	)
	if err != nil {
		return nil, err
	}
	n.AuthorName = username
	if displayName != nil && *displayName != "" {
		n.AuthorName = *displayName
	}

	if n.Genres, err = db.novelNames(`SELECT g.name FROM novel_genres ng JOIN genres g ON g.id = ng.genre_id WHERE ng.novel_id = ? ORDER BY g.name`, n.ID); err != nil {
		return nil, err
	}
	if n.Tags, err = db.novelNames(`SELECT t.name FROM novel_tags nt JOIN tags t ON t.id = nt.tag_id WHERE nt.novel_id = ? ORDER BY t.name`, n.ID); err != nil {
		return nil, err
	}
	return &n, nil
}

func (db *DB) novelNames(query, novelID string) ([]string, error) {
	rows, err := db.Query(query, novelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// NovelSort identifies a ranking order for novel listings.
type NovelSort string

const (
	SortByViews     NovelSort = "views"
	SortByRating    NovelSort = "rating"
	SortByBookmarks NovelSort = "bookmarks"
	SortByUpdated   NovelSort = "updated"
)

func (s NovelSort) orderClause() string {
	switch s {
	case SortByRating:
		return "n.rating DESC"
	case SortByBookmarks:
		return "n.bookmarks DESC"
	case SortByUpdated:
		return "n.updated_at DESC"
	default:
		return "n.views DESC"
	}
}

// ListNovels returns novels filtered by optional genre name and title search,
// ranked by the given sort.
func (db *DB) ListNovels(genre, search string, sort NovelSort, limit int) ([]model.Novel, error) {
	query := `SELECT ` + novelColumns + ` FROM novels n`
	var args []any
	if genre != "" {
		query += ` JOIN novel_genres ng ON ng.novel_id = n.id JOIN genres g ON g.id = ng.genre_id AND g.name = ?`
		args = append(args, genre)
	}
	if search != "" {
		query += ` WHERE n.title LIKE ?`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY ` + sort.orderClause() + ` LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var novels []model.Novel
	for rows.Next() {
		n, err := scanNovel(rows)
		if err != nil {
			return nil, err
		}
		novels = append(novels, *n)
	}
	return novels, rows.Err()
}

func (db *DB) ListNovelsByAuthor(authorID string) ([]model.Novel, error) {
	rows, err := db.Query(`SELECT `+novelColumns+` FROM novels n WHERE n.author_id = ? ORDER BY n.updated_at DESC`, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var novels []model.Novel
	for rows.Next() {
		n, err := scanNovel(rows)
		if err != nil {
			return nil, err
		}
		novels = append(novels, *n)
	}
	return novels, rows.Err()
}

func (db *DB) UpdateNovel(id, title string, description, coverImage *string, status string) error {
	_, err := db.Exec(
		`UPDATE novels SET title = ?, description = ?, cover_image = ?, status = ?, updated_at = ? WHERE id = ?`,
		title, description, coverImage, status, time.Now().Unix(), id,
	)
	return err
}

func (db *DB) DeleteNovel(id string) error {
	_, err := db.Exec(`DELETE FROM novels WHERE id = ?`, id)
	return err
}

func (db *DB) IncrementNovelViews(id string) error {
	_, err := db.Exec(`UPDATE novels SET views = views + 1 WHERE id = ?`, id)
	return err
}

// SetNovelGenres replaces the novel's genre set, creating unknown genres on
// the fly.
func (db *DB) SetNovelGenres(novelID string, genres []string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM novel_genres WHERE novel_id = ?`, novelID); err != nil {
		return err
	}
	for _, name := range genres {
		id, err := ensureNamed(tx, "genres", name)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO novel_genres (novel_id, genre_id) VALUES (?, ?)`, novelID, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (db *DB) SetNovelTags(novelID string, tags []string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM novel_tags WHERE novel_id = ?`, novelID); err != nil {
		return err
	}
	for _, name := range tags {
		id, err := ensureNamed(tx, "tags", name)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO novel_tags (novel_id, tag_id) VALUES (?, ?)`, novelID, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func ensureNamed(tx *sql.Tx, table, name string) (string, error) {
	var id string
	err := tx.QueryRow(`SELECT id FROM `+table+` WHERE name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		id = uuid.NewString()
		if _, err := tx.Exec(`INSERT INTO `+table+` (id, name) VALUES (?, ?)`, id, name); err != nil {
			return "", err
		}
		return id, nil
	}
	return id, err
}

func (db *DB) ListGenres() ([]model.Genre, error) {
	rows, err := db.Query(`SELECT id, name FROM genres ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var genres []model.Genre
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// RecomputeNovelRating refreshes the denormalized average after a rating
// upsert.
func (db *DB) RecomputeNovelRating(novelID string) error {
	_, err := db.Exec(
		`UPDATE novels SET rating = COALESCE((SELECT AVG(rating) FROM novel_ratings WHERE novel_id = ?), 0) WHERE id = ?`,
		novelID, novelID,
	)
	return err
}

func (db *DB) ListFeaturedNovels() ([]model.FeaturedNovel, error) {
	rows, err := db.Query(`SELECT f.id, f.novel_id, f.display_order, f.created_at, ` + novelColumns + ` FROM featured_novels f JOIN novels n ON n.id = f.novel_id ORDER BY f.display_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var featured []model.FeaturedNovel
	for rows.Next() {
		var f model.FeaturedNovel
		var n model.Novel
		err := rows.Scan(
			&f.ID, &f.NovelID, &f.DisplayOrder, &f.CreatedAt,
			&n.ID, &n.AuthorID, &n.Title, &n.Description, &n.CoverImage, &n.Status,
			&n.Rating, &n.Views, &n.Bookmarks, &n.CreatedAt, &n.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		f.Novel = &n
		featured = append(featured, f)
	}
	return featured, rows.Err()
}

// SetFeaturedNovels replaces the featured list in the given order.
func (db *DB) SetFeaturedNovels(novelIDs []string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM featured_novels`); err != nil {
		return err
	}
	now := time.Now().Unix()
	for i, novelID := range novelIDs {
		if _, err := tx.Exec(
			`INSERT INTO featured_novels (id, novel_id, display_order, created_at) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), novelID, i, now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}
