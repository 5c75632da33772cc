package api

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/chapterly/webnovel-go-server/internal/db"
)

type NovelHandler struct {
	DB *db.DB
}

const defaultListLimit = 50

func (h *NovelHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultListLimit
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	sort := db.NovelSort(q.Get("sort"))
	novels, err := h.DB.ListNovels(q.Get("genre"), q.Get("search"), sort, limit)
	if err != nil {
		log.Printf("Error listing novels: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	JSON(w, novels)
}

func (h *NovelHandler) Get(w http.ResponseWriter, r *http.Request) {
	novel, err := h.DB.GetNovel(r.PathValue("id"))
	if err == sql.ErrNoRows {
		JSONError(w, "Novel not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Printf("Error fetching novel: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	chapters, err := h.DB.ListChapters(novel.ID)
	if err != nil {
		log.Printf("Error fetching chapters: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	novel.Chapters = chapters

	// View counting is best-effort; a miss never fails the read.
	if err := h.DB.IncrementNovelViews(novel.ID); err != nil {
		log.Printf("Failed to increment views for novel %s: %v", novel.ID, err)
	}

	JSON(w, novel)
}

func (h *NovelHandler) Featured(w http.ResponseWriter, r *http.Request) {
	featured, err := h.DB.ListFeaturedNovels()
	if err != nil {
		log.Printf("Error fetching featured novels: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, featured)
}

func (h *NovelHandler) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.DB.ListGenres()
	if err != nil {
		log.Printf("Error fetching genres: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, genres)
}

type novelRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	CoverImage  *string  `json:"cover_image"`
	Status      string   `json:"status"`
	Genres      []string `json:"genres"`
	Tags        []string `json:"tags"`
}

func validNovelStatus(s string) bool {
	switch s {
	case "Ongoing", "Completed", "Hiatus":
		return true
	}
	return false
}

func (h *NovelHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req novelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		JSONError(w, "Title is required", http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		req.Status = "Ongoing"
	}
	if !validNovelStatus(req.Status) {
		JSONError(w, "Invalid status", http.StatusBadRequest)
		return
	}

	novel, err := h.DB.CreateNovel(userID, req.Title, req.Description, req.CoverImage, req.Status)
	if err != nil {
		log.Printf("Error creating novel: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	if err := h.DB.SetNovelGenres(novel.ID, req.Genres); err != nil {
		log.Printf("Error setting genres: %v", err)
	}
	if err := h.DB.SetNovelTags(novel.ID, req.Tags); err != nil {
		log.Printf("Error setting tags: %v", err)
	}
	novel.Genres = req.Genres
	novel.Tags = req.Tags

	w.WriteHeader(http.StatusCreated)
	JSON(w, novel)
}

func (h *NovelHandler) Update(w http.ResponseWriter, r *http.Request) {
	novel, ok := h.loadOwnedNovel(w, r)
	if !ok {
		return
	}

	var req novelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		req.Title = novel.Title
	}
	if req.Status == "" {
		req.Status = novel.Status
	}
	if !validNovelStatus(req.Status) {
		JSONError(w, "Invalid status", http.StatusBadRequest)
		return
	}

	if err := h.DB.UpdateNovel(novel.ID, req.Title, req.Description, req.CoverImage, req.Status); err != nil {
		log.Printf("Error updating novel: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	if req.Genres != nil {
		if err := h.DB.SetNovelGenres(novel.ID, req.Genres); err != nil {
			log.Printf("Error setting genres: %v", err)
		}
	}
	if req.Tags != nil {
		if err := h.DB.SetNovelTags(novel.ID, req.Tags); err != nil {
			log.Printf("Error setting tags: %v", err)
		}
	}

	updated, err := h.DB.GetNovel(novel.ID)
	if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, updated)
}

func (h *NovelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	novel, ok := h.loadOwnedNovel(w, r)
	if !ok {
		return
	}

	if err := h.DB.DeleteNovel(novel.ID); err != nil {
		log.Printf("Error deleting novel: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NovelHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	novels, err := h.DB.ListNovelsByAuthor(userID)
	if err != nil {
		log.Printf("Error listing novels: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, novels)
}

type ownedNovel struct {
	ID     string
	Title  string
	Status string
}

// loadOwnedNovel loads the path novel and enforces that the caller is its
// author or an admin.
func (h *NovelHandler) loadOwnedNovel(w http.ResponseWriter, r *http.Request) (*ownedNovel, bool) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	novelID := r.PathValue("id")
	var authorID, title, status string
	err := h.DB.QueryRow(`SELECT author_id, title, status FROM novels WHERE id = ?`, novelID).Scan(&authorID, &title, &status)
	if err == sql.ErrNoRows {
		JSONError(w, "Novel not found", http.StatusNotFound)
		return nil, false
	} else if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return nil, false
	}

	if authorID != userID {
		profile, err := h.DB.GetProfileByID(userID)
		if err != nil || !profile.IsAdmin {
			JSONError(w, "Forbidden", http.StatusForbidden)
			return nil, false
		}
	}

	return &ownedNovel{ID: novelID, Title: title, Status: status}, true
}
