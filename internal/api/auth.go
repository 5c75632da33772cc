package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/chapterly/webnovel-go-server/internal/auth"
	"github.com/chapterly/webnovel-go-server/internal/db"
	"github.com/chapterly/webnovel-go-server/internal/mail"
	"github.com/chapterly/webnovel-go-server/internal/templates"
)

type AuthHandler struct {
	DB        *db.DB
	Mailer    mail.MailSender
	Templates *templates.Manager
	BaseURL   string
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Username == "" || len(req.Password) < 8 {
		JSONError(w, "Email, username and a password of at least 8 characters are required", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		JSONError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	profile, err := h.DB.CreateProfile(req.Email, hash, req.Username)
	if err != nil {
		JSONError(w, "Failed to register (email or username might be taken)", http.StatusConflict)
		return
	}

	token, err := auth.GenerateToken(profile.ID)
	if err != nil {
		JSONError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	JSON(w, map[string]string{"token": token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := h.DB.GetProfileByEmail(req.Email)
	if err == sql.ErrNoRows {
		JSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	} else if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	match, err := auth.VerifyPassword(req.Password, profile.PasswordHash)
	if err != nil {
		JSONError(w, "Error verifying password", http.StatusInternalServerError)
		return
	}
	if !match {
		JSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(profile.ID)
	if err != nil {
		JSONError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	JSON(w, map[string]string{"token": token})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := h.DB.GetProfileByEmail(req.Email)
	if err != nil {
		// User not found: answer OK anyway to avoid leaking addresses
		JSON(w, "A password reset email was sent")
		return
	}

	token, hash, err := auth.GenerateResetToken()
	if err != nil {
		JSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	expiresAt := time.Now().Add(1 * time.Hour).Unix()

	if err := h.DB.SetPasswordResetToken(profile.ID, hash, expiresAt); err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	link := fmt.Sprintf("%s/reset-password-page?token=%s", h.BaseURL, token)

	htmlBody, err := h.Templates.Render("mail/forgot-password.html", map[string]string{"ResetPasswordLink": link})
	if err != nil {
		log.Printf("Template render error: %v", err)
	}

	if err := h.Mailer.Send(profile.Email, "Password reset", "Reset link: "+link, htmlBody); err != nil {
		log.Printf("Mail send error: %v", err)
	}

	JSON(w, "A password reset email was sent")
}

func (h *AuthHandler) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		JSONError(w, "Missing token", http.StatusBadRequest)
		return
	}

	html, err := h.Templates.Render("pages/reset-password.html", map[string]string{"Token": token})
	if err != nil {
		JSONError(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(html))
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResetToken string `json:"reset_token"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		JSONError(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	tokenHash := auth.HashToken(req.ResetToken)
	profile, err := h.DB.GetProfileByResetToken(tokenHash)
	if err != nil {
		JSONError(w, "Invalid or expired token", http.StatusBadRequest)
		return
	}
	if profile.PasswordResetTokenExpires == nil || time.Now().Unix() > *profile.PasswordResetTokenExpires {
		JSONError(w, "Invalid or expired token", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		JSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.DB.UpdatePassword(profile.ID, hash); err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	if err := h.DB.ClearResetToken(profile.ID); err != nil {
		log.Printf("Failed to clear reset token for %s: %v", profile.ID, err)
	}

	JSON(w, "Password updated")
}
