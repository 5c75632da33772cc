package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/chapterly/webnovel-go-server/internal/db"
	"github.com/chapterly/webnovel-go-server/internal/ledger"
	"github.com/chapterly/webnovel-go-server/internal/model"
)

type ChapterHandler struct {
	DB     *db.DB
	Ledger *ledger.Service
}

// ChapterResponse is the reader payload. Content is withheld while the
// chapter is locked for the caller.
type ChapterResponse struct {
	Chapter       model.Chapter `json:"chapter"`
	Locked        bool          `json:"locked"`
	PrevChapterID string        `json:"prev_chapter_id,omitempty"`
	NextChapterID string        `json:"next_chapter_id,omitempty"`
}

// Read serves a chapter with its lock state resolved for the caller. Free
// chapters, purchased chapters, and the author's own chapters include
// content; locked premium chapters return metadata only.
func (h *ChapterHandler) Read(w http.ResponseWriter, r *http.Request) {
	chapterID := r.PathValue("id")
	userID, _ := GetUserID(r)

	chapter, err := h.DB.GetChapter(chapterID)
	if err == sql.ErrNoRows {
		JSONError(w, "Chapter not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Printf("Error fetching chapter: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	state, err := h.Ledger.State(r.Context(), userID, chapterID)
	if err != nil {
		log.Printf("Error resolving unlock state: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	resp := ChapterResponse{Chapter: *chapter, Locked: state == ledger.Locked}
	if resp.Locked {
		resp.Chapter.Content = ""
	} else {
		// Best-effort read tracking, never blocks the response.
		if err := h.DB.IncrementChapterViews(chapterID); err != nil {
			log.Printf("Failed to increment views for chapter %s: %v", chapterID, err)
		}
		if userID != "" {
			if err := h.DB.UpsertReadingHistory(userID, chapter.NovelID, chapterID, nil); err != nil {
				log.Printf("Failed to record reading history: %v", err)
			}
		}
	}

	prev, next, err := h.DB.SiblingChapters(chapter.NovelID, chapter.ChapterNumber)
	if err != nil {
		log.Printf("Error fetching sibling chapters: %v", err)
	} else {
		resp.PrevChapterID = prev
		resp.NextChapterID = next
	}

	JSON(w, resp)
}

// Unlock purchases a premium chapter for the caller. Repeat calls are
// no-ops, never second charges.
func (h *ChapterHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := h.Ledger.Unlock(r.Context(), userID, r.PathValue("id"))
	if errors.Is(err, ledger.ErrInsufficientFunds) {
		JSONError(w, "Insufficient coins", http.StatusPaymentRequired)
		return
	} else if errors.Is(err, ledger.ErrChapterNotFound) {
		JSONError(w, "Chapter not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Printf("Unlock failed for user %s chapter %s: %v", userID, r.PathValue("id"), err)
		JSONError(w, "Failed to process purchase", http.StatusInternalServerError)
		return
	}

	JSON(w, result)
}

type chapterRequest struct {
	ChapterNumber int    `json:"chapter_number"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	IsPremium     bool   `json:"is_premium"`
	CoinCost      int64  `json:"coin_cost"`
}

func (h *ChapterHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	novelID := r.PathValue("id")

	var authorID string
	err := h.DB.QueryRow(`SELECT author_id FROM novels WHERE id = ?`, novelID).Scan(&authorID)
	if err == sql.ErrNoRows {
		JSONError(w, "Novel not found", http.StatusNotFound)
		return
	} else if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	if authorID != userID {
		JSONError(w, "Forbidden", http.StatusForbidden)
		return
	}

	var req chapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Content == "" || req.ChapterNumber <= 0 {
		JSONError(w, "Title, content and a positive chapter number are required", http.StatusBadRequest)
		return
	}
	if req.CoinCost < 0 {
		JSONError(w, "Coin cost cannot be negative", http.StatusBadRequest)
		return
	}
	if !req.IsPremium {
		req.CoinCost = 0
	}

	chapter, err := h.DB.CreateChapter(novelID, req.ChapterNumber, req.Title, req.Content, req.IsPremium, req.CoinCost)
	if err != nil {
		log.Printf("Error creating chapter: %v", err)
		JSONError(w, "Failed to create chapter (chapter number might be taken)", http.StatusConflict)
		return
	}

	w.WriteHeader(http.StatusCreated)
	JSON(w, chapter)
}

func (h *ChapterHandler) Update(w http.ResponseWriter, r *http.Request) {
	chapter, ok := h.authoredChapter(w, r)
	if !ok {
		return
	}

	var req chapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		req.Title = chapter.Title
	}
	if req.Content == "" {
		req.Content = chapter.Content
	}
	if req.CoinCost < 0 {
		JSONError(w, "Coin cost cannot be negative", http.StatusBadRequest)
		return
	}
	if !req.IsPremium {
		req.CoinCost = 0
	}

	if err := h.DB.UpdateChapter(chapter.ID, req.Title, req.Content, req.IsPremium, req.CoinCost); err != nil {
		log.Printf("Error updating chapter: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	updated, err := h.DB.GetChapter(chapter.ID)
	if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, updated)
}

func (h *ChapterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	chapter, ok := h.authoredChapter(w, r)
	if !ok {
		return
	}

	if err := h.DB.DeleteChapter(chapter.ID); err != nil {
		log.Printf("Error deleting chapter: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authoredChapter loads the path chapter and enforces that the caller
// authored its novel.
func (h *ChapterHandler) authoredChapter(w http.ResponseWriter, r *http.Request) (*model.Chapter, bool) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	chapter, err := h.DB.GetChapter(r.PathValue("id"))
	if err == sql.ErrNoRows {
		JSONError(w, "Chapter not found", http.StatusNotFound)
		return nil, false
	} else if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return nil, false
	}

	var authorID string
	if err := h.DB.QueryRow(`SELECT author_id FROM novels WHERE id = ?`, chapter.NovelID).Scan(&authorID); err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return nil, false
	}
	if authorID != userID {
		JSONError(w, "Forbidden", http.StatusForbidden)
		return nil, false
	}

	return chapter, true
}
