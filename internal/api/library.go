package api

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/chapterly/webnovel-go-server/internal/db"
)

// LibraryHandler covers per-user reading state: bookmarks, ratings and
// reading history.
type LibraryHandler struct {
	DB *db.DB
}

func (h *LibraryHandler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	bookmarks, err := h.DB.ListBookmarks(userID)
	if err != nil {
		log.Printf("Error fetching bookmarks: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, bookmarks)
}

func (h *LibraryHandler) AddBookmark(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	novelID := r.PathValue("id")

	var exists bool
	if err := h.DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM novels WHERE id = ?)`, novelID).Scan(&exists); err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	if !exists {
		JSONError(w, "Novel not found", http.StatusNotFound)
		return
	}

	if err := h.DB.AddBookmark(userID, novelID); err != nil {
		log.Printf("Error adding bookmark: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	JSON(w, map[string]bool{"bookmarked": true})
}

func (h *LibraryHandler) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.DB.RemoveBookmark(userID, r.PathValue("id")); err != nil {
		log.Printf("Error removing bookmark: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, map[string]bool{"bookmarked": false})
}

func (h *LibraryHandler) RateNovel(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	novelID := r.PathValue("id")

	var req struct {
		Rating  int     `json:"rating"`
		Comment *string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		JSONError(w, "Rating must be between 1 and 5", http.StatusBadRequest)
		return
	}

	if err := h.DB.UpsertRating(userID, novelID, req.Rating, req.Comment); err != nil {
		log.Printf("Error saving rating: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	if err := h.DB.RecomputeNovelRating(novelID); err != nil {
		log.Printf("Error recomputing rating for novel %s: %v", novelID, err)
	}

	rating, err := h.DB.GetRating(userID, novelID)
	if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, rating)
}

func (h *LibraryHandler) GetMyRating(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	rating, err := h.DB.GetRating(userID, r.PathValue("id"))
	if err == sql.ErrNoRows {
		JSONError(w, "Not rated", http.StatusNotFound)
		return
	} else if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, rating)
}

func (h *LibraryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	history, err := h.DB.ListReadingHistory(userID)
	if err != nil {
		log.Printf("Error fetching reading history: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, history)
}

// SaveProgress updates the caller's last reading position in a chapter.
func (h *LibraryHandler) SaveProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	chapterID := r.PathValue("id")

	var req struct {
		LastPosition *float64 `json:"last_position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var novelID string
	err := h.DB.QueryRow(`SELECT novel_id FROM chapters WHERE id = ?`, chapterID).Scan(&novelID)
	if err == sql.ErrNoRows {
		JSONError(w, "Chapter not found", http.StatusNotFound)
		return
	} else if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	if err := h.DB.UpsertReadingHistory(userID, novelID, chapterID, req.LastPosition); err != nil {
		log.Printf("Error saving progress: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
