package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/chapterly/webnovel-go-server/internal/model"
)

// Static pages

func (db *DB) CreatePage(slug, title, content string, published, inMenu bool, menuOrder *int) (*model.Page, error) {
	now := time.Now().Unix()
	p := &model.Page{
		ID:        uuid.NewString(),
		Slug:      slug,
		Title:     title,
		Content:   content,
		Published: published,
		InMenu:    inMenu,
		MenuOrder: menuOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := db.Exec(
		`INSERT INTO pages (id, slug, title, content, published, in_menu, menu_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Slug, p.Title, p.Content, p.Published, p.InMenu, p.MenuOrder, now, now,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (db *DB) GetPageBySlug(slug string) (*model.Page, error) {
	var p model.Page
	row := db.QueryRow(
		`SELECT id, slug, title, content, published, in_menu, menu_order, created_at, updated_at FROM pages WHERE slug = ?`,
		slug,
	)
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Content, &p.Published, &p.InMenu, &p.MenuOrder, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) ListPages() ([]model.Page, error) {
	rows, err := db.Query(`SELECT id, slug, title, content, published, in_menu, menu_order, created_at, updated_at FROM pages ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		var p model.Page
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Content, &p.Published, &p.InMenu, &p.MenuOrder, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (db *DB) UpdatePage(id, slug, title, content string, published, inMenu bool, menuOrder *int) error {
	_, err := db.Exec(
		`UPDATE pages SET slug = ?, title = ?, content = ?, published = ?, in_menu = ?, menu_order = ?, updated_at = ? WHERE id = ?`,
		slug, title, content, published, inMenu, menuOrder, time.Now().Unix(), id,
	)
	return err
}

func (db *DB) DeletePage(id string) error {
	_, err := db.Exec(`DELETE FROM pages WHERE id = ?`, id)
	return err
}

// Menu items

func (db *DB) CreateMenuItem(title, url, location string, displayOrder int, parentID *string, isActive bool) (*model.MenuItem, error) {
	now := time.Now().Unix()
	m := &model.MenuItem{
		ID:           uuid.NewString(),
		Title:        title,
		URL:          url,
		MenuLocation: location,
		DisplayOrder: displayOrder,
		ParentID:     parentID,
		IsActive:     isActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := db.Exec(
		`INSERT INTO menu_items (id, title, url, menu_location, display_order, parent_id, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Title, m.URL, m.MenuLocation, m.DisplayOrder, m.ParentID, m.IsActive, now, now,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMenuItems returns items for a location ordered for display; pass an
// empty location for all items (admin view).
func (db *DB) ListMenuItems(location string, activeOnly bool) ([]model.MenuItem, error) {
	query := `SELECT id, title, url, menu_location, display_order, parent_id, is_active, created_at, updated_at FROM menu_items`
	var args []any
	var where []string
	if location != "" {
		where = append(where, `menu_location = ?`)
		args = append(args, location)
	}
	if activeOnly {
		where = append(where, `is_active = 1`)
	}
	for i, w := range where {
		if i == 0 {
			query += ` WHERE ` + w
		} else {
			query += ` AND ` + w
		}
	}
	query += ` ORDER BY menu_location, display_order`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.MenuItem
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.Title, &m.URL, &m.MenuLocation, &m.DisplayOrder, &m.ParentID, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (db *DB) UpdateMenuItem(id, title, url, location string, displayOrder int, parentID *string, isActive bool) error {
	_, err := db.Exec(
		`UPDATE menu_items SET title = ?, url = ?, menu_location = ?, display_order = ?, parent_id = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		title, url, location, displayOrder, parentID, isActive, time.Now().Unix(), id,
	)
	return err
}

func (db *DB) DeleteMenuItem(id string) error {
	_, err := db.Exec(`DELETE FROM menu_items WHERE id = ?`, id)
	return err
}

// Payment settings

// UpsertPaymentSetting stores a provider's enabled flag and opaque JSON
// config, one row per provider.
func (db *DB) UpsertPaymentSetting(provider string, isEnabled bool, config string) error {
	now := time.Now().Unix()
	stmt := `INSERT INTO payment_settings (id, provider, is_enabled, config, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider) DO UPDATE SET is_enabled=excluded.is_enabled, config=excluded.config, updated_at=?`
	if db.isMySQL() {
		stmt = `INSERT INTO payment_settings (id, provider, is_enabled, config, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE is_enabled=VALUES(is_enabled), config=VALUES(config), updated_at=?`
	}
	_, err := db.Exec(stmt, uuid.NewString(), provider, isEnabled, config, now, now, now)
	return err
}

func (db *DB) ListPaymentSettings() ([]model.PaymentSetting, error) {
	rows, err := db.Query(`SELECT id, provider, is_enabled, config, created_at, updated_at FROM payment_settings ORDER BY provider`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []model.PaymentSetting
	for rows.Next() {
		var s model.PaymentSetting
		if err := rows.Scan(&s.ID, &s.Provider, &s.IsEnabled, &s.Config, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// Site settings (singleton row)

func (db *DB) GetSiteSettings() (*model.SiteSettings, error) {
	var s model.SiteSettings
	row := db.QueryRow(`SELECT id, site_name, site_tagline, footer_site_name, updated_at FROM site_settings LIMIT 1`)
	err := row.Scan(&s.ID, &s.SiteName, &s.SiteTagline, &s.FooterSiteName, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) UpdateSiteSettings(siteName, siteTagline, footerSiteName string) error {
	now := time.Now().Unix()
	res, err := db.Exec(
		`UPDATE site_settings SET site_name = ?, site_tagline = ?, footer_site_name = ?, updated_at = ?`,
		siteName, siteTagline, footerSiteName, now,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err = db.Exec(
			`INSERT INTO site_settings (id, site_name, site_tagline, footer_site_name, updated_at) VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), siteName, siteTagline, footerSiteName, now,
		)
	}
	return err
}

// Coin packages

func (db *DB) CreateCoinPackage(name string, coinAmount int64, price float64, currency string, description *string, isActive, isFeatured bool) (*model.CoinPackage, error) {
	now := time.Now().Unix()
	p := &model.CoinPackage{
		ID:          uuid.NewString(),
		Name:        name,
		CoinAmount:  coinAmount,
		Price:       price,
		Currency:    currency,
		Description: description,
		IsActive:    isActive,
		IsFeatured:  isFeatured,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := db.Exec(
		`INSERT INTO coin_packages (id, name, coin_amount, price, currency, description, is_active, is_featured, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.CoinAmount, p.Price, p.Currency, p.Description, p.IsActive, p.IsFeatured, now, now,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (db *DB) GetCoinPackage(id string) (*model.CoinPackage, error) {
	var p model.CoinPackage
	row := db.QueryRow(
		`SELECT id, name, coin_amount, price, currency, description, is_active, is_featured, created_at, updated_at FROM coin_packages WHERE id = ?`,
		id,
	)
	err := row.Scan(&p.ID, &p.Name, &p.CoinAmount, &p.Price, &p.Currency, &p.Description, &p.IsActive, &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) ListCoinPackages(activeOnly bool) ([]model.CoinPackage, error) {
	query := `SELECT id, name, coin_amount, price, currency, description, is_active, is_featured, created_at, updated_at FROM coin_packages`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY coin_amount`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packages []model.CoinPackage
	for rows.Next() {
		var p model.CoinPackage
		if err := rows.Scan(&p.ID, &p.Name, &p.CoinAmount, &p.Price, &p.Currency, &p.Description, &p.IsActive, &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		packages = append(packages, p)
	}
	return packages, rows.Err()
}

func (db *DB) UpdateCoinPackage(id, name string, coinAmount int64, price float64, currency string, description *string, isActive, isFeatured bool) error {
	_, err := db.Exec(
		`UPDATE coin_packages SET name = ?, coin_amount = ?, price = ?, currency = ?, description = ?, is_active = ?, is_featured = ?, updated_at = ? WHERE id = ?`,
		name, coinAmount, price, currency, description, isActive, isFeatured, time.Now().Unix(), id,
	)
	return err
}

func (db *DB) DeleteCoinPackage(id string) error {
	_, err := db.Exec(`DELETE FROM coin_packages WHERE id = ?`, id)
	return err
}

// Ledger reads

func (db *DB) ListCoinTransactions(userID string, limit int) ([]model.CoinTransaction, error) {
	rows, err := db.Query(
		`SELECT id, user_id, amount, transaction_type, reference_id, description, created_at FROM coin_transactions WHERE user_id = ? ORDER BY created_at DESC, id LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []model.CoinTransaction
	for rows.Next() {
		var t model.CoinTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.TransactionType, &t.ReferenceID, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
