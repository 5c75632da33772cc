package db_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/chapterly/webnovel-go-server/internal/testutil"
)

func TestCreateAndGetProfile(t *testing.T) {
	database := testutil.SetupTestDB(t)

	profile, err := database.CreateProfile("reader@example.com", "hash", "reader")
	if err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}
	if profile.ID == "" {
		t.Fatal("Expected a generated id")
	}
	if profile.Coins != 0 {
		t.Errorf("Expected new profiles to start with 0 coins, got %d", profile.Coins)
	}

	byEmail, err := database.GetProfileByEmail("reader@example.com")
	if err != nil {
		t.Fatalf("GetProfileByEmail failed: %v", err)
	}
	if byEmail.ID != profile.ID || byEmail.Username != "reader" {
		t.Errorf("Unexpected profile: %+v", byEmail)
	}

	byID, err := database.GetProfileByID(profile.ID)
	if err != nil {
		t.Fatalf("GetProfileByID failed: %v", err)
	}
	if byID.Email != "reader@example.com" {
		t.Errorf("Unexpected email: %s", byID.Email)
	}

	if _, err := database.GetProfileByEmail("nobody@example.com"); err != sql.ErrNoRows {
		t.Errorf("Expected sql.ErrNoRows, got %v", err)
	}
}

func TestCreateProfileDuplicates(t *testing.T) {
	database := testutil.SetupTestDB(t)

	if _, err := database.CreateProfile("reader@example.com", "hash", "reader"); err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}
	if _, err := database.CreateProfile("reader@example.com", "hash", "other"); err == nil {
		t.Error("Expected duplicate email to fail")
	}
	if _, err := database.CreateProfile("other@example.com", "hash", "reader"); err == nil {
		t.Error("Expected duplicate username to fail")
	}
}

func TestUpdateProfile(t *testing.T) {
	database := testutil.SetupTestDB(t)

	profile := testutil.SeedUser(t, database, "reader@example.com", "reader", 0)

	display := "The Reader"
	bio := "I read everything."
	if err := database.UpdateProfile(profile.ID, &display, &bio, nil); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	updated, err := database.GetProfileByID(profile.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.DisplayName == nil || *updated.DisplayName != display {
		t.Errorf("Expected display name %q, got %v", display, updated.DisplayName)
	}
	if updated.Bio == nil || *updated.Bio != bio {
		t.Errorf("Expected bio %q, got %v", bio, updated.Bio)
	}
	if updated.AvatarURL != nil {
		t.Errorf("Expected avatar to stay unset, got %v", *updated.AvatarURL)
	}
}

func TestPasswordResetTokenLifecycle(t *testing.T) {
	database := testutil.SetupTestDB(t)

	profile := testutil.SeedUser(t, database, "reader@example.com", "reader", 0)
	expires := time.Now().Add(time.Hour).Unix()

	if err := database.SetPasswordResetToken(profile.ID, "tokenhash", expires); err != nil {
		t.Fatalf("SetPasswordResetToken failed: %v", err)
	}

	found, err := database.GetProfileByResetToken("tokenhash")
	if err != nil {
		t.Fatalf("GetProfileByResetToken failed: %v", err)
	}
	if found.ID != profile.ID {
		t.Errorf("Expected profile %s, got %s", profile.ID, found.ID)
	}
	if found.PasswordResetTokenExpires == nil || *found.PasswordResetTokenExpires != expires {
		t.Error("Expected expiry to round-trip")
	}

	if err := database.ClearResetToken(profile.ID); err != nil {
		t.Fatalf("ClearResetToken failed: %v", err)
	}
	if _, err := database.GetProfileByResetToken("tokenhash"); err != sql.ErrNoRows {
		t.Errorf("Expected sql.ErrNoRows after clear, got %v", err)
	}
}

func TestCoinBalanceFloor(t *testing.T) {
	database := testutil.SetupTestDB(t)

	profile := testutil.SeedUser(t, database, "reader@example.com", "reader", 10)

	// The schema refuses negative balances outright.
	if _, err := database.Exec(`UPDATE profiles SET coins = -1 WHERE id = ?`, profile.ID); err == nil {
		t.Error("Expected negative balance to violate the check constraint")
	}

	coins, err := database.GetCoinBalance(profile.ID)
	if err != nil {
		t.Fatal(err)
	}
	if coins != 10 {
		t.Errorf("Expected balance 10, got %d", coins)
	}
}
