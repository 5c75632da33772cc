package testutil

import (
	"log"
	"testing"

	"github.com/chapterly/webnovel-go-server/internal/db"
	"github.com/chapterly/webnovel-go-server/internal/model"
)

// SetupTestDB creates an in-memory SQLite DB with schema
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.New("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to init in-memory db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

// SeedUser inserts a profile with the given coin balance and returns it.
func SeedUser(t *testing.T, database *db.DB, email, username string, coins int64) *model.Profile {
	t.Helper()

	profile, err := database.CreateProfile(email, "dummyhash", username)
	if err != nil {
		t.Fatalf("Failed to seed user %s: %v", username, err)
	}
	if coins != 0 {
		if _, err := database.Exec("UPDATE profiles SET coins = ? WHERE id = ?", coins, profile.ID); err != nil {
			t.Fatalf("Failed to set coins for %s: %v", username, err)
		}
		profile.Coins = coins
	}
	return profile
}

// SeedAdmin inserts a profile with the admin flag set.
func SeedAdmin(t *testing.T, database *db.DB, email, username string) *model.Profile {
	t.Helper()

	profile := SeedUser(t, database, email, username, 0)
	if _, err := database.Exec("UPDATE profiles SET is_admin = 1 WHERE id = ?", profile.ID); err != nil {
		t.Fatalf("Failed to set admin flag for %s: %v", username, err)
	}
	profile.IsAdmin = true
	return profile
}

// SeedNovel inserts a novel owned by the given author.
func SeedNovel(t *testing.T, database *db.DB, authorID, title string) *model.Novel {
	t.Helper()

	novel, err := database.CreateNovel(authorID, title, nil, nil, "Ongoing")
	if err != nil {
		t.Fatalf("Failed to seed novel %s: %v", title, err)
	}
	return novel
}

// SeedChapter inserts a chapter; premium when coinCost > 0.
func SeedChapter(t *testing.T, database *db.DB, novelID string, number int, coinCost int64) *model.Chapter {
	t.Helper()

	chapter, err := database.CreateChapter(novelID, number, "Chapter", "content", coinCost > 0, coinCost)
	if err != nil {
		t.Fatalf("Failed to seed chapter %d: %v", number, err)
	}
	return chapter
}

// MockMailSender captures emails for testing
type MockMailSender struct {
	SentEmails []SentEmail
}

type SentEmail struct {
	To       string
	Subject  string
	TextBody string
	HtmlBody string
}

func (m *MockMailSender) Send(to string, subject string, textBody string, htmlBody string) error {
	m.SentEmails = append(m.SentEmails, SentEmail{to, subject, textBody, htmlBody})
	log.Printf("Mock email sent to %s", to)
	return nil
}
