package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/chapterly/webnovel-go-server/internal/model"
)

const profileColumns = `id, email, password_hash, username, display_name, bio, avatar_url, coins, is_admin, created_at, updated_at, password_reset_token_hash, password_reset_token_expires_at`

func scanProfile(row interface{ Scan(...any) error }) (*model.Profile, error) {
	var p model.Profile
	err := row.Scan(
		&p.ID, &p.Email, &p.PasswordHash, &p.Username, &p.DisplayName, &p.Bio,
		&p.AvatarURL, &p.Coins, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt,
		&p.PasswordResetTokenHash, &p.PasswordResetTokenExpires,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) CreateProfile(email, passwordHash, username string) (*model.Profile, error) {
	now := time.Now().Unix()
	p := &model.Profile{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Username:     username,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := db.Exec(
		`INSERT INTO profiles (id, email, password_hash, username, coins, is_admin, created_at, updated_at) VALUES (?, ?, ?, ?, 0, 0, ?, ?)`,
		p.ID, p.Email, p.PasswordHash, p.Username, now, now,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (db *DB) GetProfileByEmail(email string) (*model.Profile, error) {
	row := db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE email = ?`, email)
	return scanProfile(row)
}

func (db *DB) GetProfileByID(id string) (*model.Profile, error) {
	row := db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	return scanProfile(row)
}

func (db *DB) GetProfileByResetToken(tokenHash string) (*model.Profile, error) {
	row := db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE password_reset_token_hash = ?`, tokenHash)
	return scanProfile(row)
}

func (db *DB) ProfileExists(id string) (bool, error) {
	var exists bool
	err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM profiles WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (db *DB) UpdateProfile(id string, displayName, bio, avatarURL *string) error {
	_, err := db.Exec(
		`UPDATE profiles SET display_name = ?, bio = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		displayName, bio, avatarURL, time.Now().Unix(), id,
	)
	return err
}

func (db *DB) SetPasswordResetToken(userID string, tokenHash string, expiresAt int64) error {
	_, err := db.Exec(
		`UPDATE profiles SET password_reset_token_hash = ?, password_reset_token_expires_at = ? WHERE id = ?`,
		tokenHash, expiresAt, userID,
	)
	return err
}

func (db *DB) UpdatePassword(userID string, passwordHash string) error {
	_, err := db.Exec(`UPDATE profiles SET password_hash = ? WHERE id = ?`, passwordHash, userID)
	return err
}

func (db *DB) ClearResetToken(userID string) error {
	_, err := db.Exec(`UPDATE profiles SET password_reset_token_hash = NULL, password_reset_token_expires_at = NULL WHERE id = ?`, userID)
	return err
}

// GetCoinBalance reads the current balance directly, never a cached value.
func (db *DB) GetCoinBalance(userID string) (int64, error) {
	var coins int64
	err := db.QueryRow(`SELECT coins FROM profiles WHERE id = ?`, userID).Scan(&coins)
	return coins, err
}

// ListProfiles returns all profiles ordered by username, for the admin user
// table.
func (db *DB) ListProfiles() ([]model.Profile, error) {
	rows, err := db.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}
