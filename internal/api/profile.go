package api

import (
	"encoding/json"
	"net/http"

	"github.com/chapterly/webnovel-go-server/internal/db"
)

type ProfileHandler struct {
	DB *db.DB
}

type ProfileResponse struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Username    string  `json:"username"`
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
	Coins       int64   `json:"coins"`
	IsAdmin     bool    `json:"is_admin"`
}

func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	profile, err := h.DB.GetProfileByID(userID)
	if err != nil {
		JSONError(w, "User not found", http.StatusNotFound)
		return
	}

	JSON(w, ProfileResponse{
		ID:          profile.ID,
		Email:       profile.Email,
		Username:    profile.Username,
		DisplayName: profile.DisplayName,
		Bio:         profile.Bio,
		AvatarURL:   profile.AvatarURL,
		Coins:       profile.Coins,
		IsAdmin:     profile.IsAdmin,
	})
}

func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		DisplayName *string `json:"display_name"`
		Bio         *string `json:"bio"`
		AvatarURL   *string `json:"avatar_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.DB.UpdateProfile(userID, req.DisplayName, req.Bio, req.AvatarURL); err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	h.GetMe(w, r)
}
