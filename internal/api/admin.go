package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/chapterly/webnovel-go-server/internal/db"
	"github.com/chapterly/webnovel-go-server/internal/ledger"
)

// AdminHandler backs the administrative office: users and coin adjustments,
// static pages, menus, payment providers, site settings, featured novels and
// coin packages.
type AdminHandler struct {
	DB     *db.DB
	Ledger *ledger.Service
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.DB.ListProfiles()
	if err != nil {
		log.Printf("Error listing users: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	type adminUser struct {
		ID          string  `json:"id"`
		Email       string  `json:"email"`
		Username    string  `json:"username"`
		DisplayName *string `json:"display_name"`
		Coins       int64   `json:"coins"`
		IsAdmin     bool    `json:"is_admin"`
		CreatedAt   int64   `json:"created_at"`
	}
	users := make([]adminUser, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, adminUser{
			ID: p.ID, Email: p.Email, Username: p.Username,
			DisplayName: p.DisplayName, Coins: p.Coins, IsAdmin: p.IsAdmin,
			CreatedAt: p.CreatedAt,
		})
	}
	JSON(w, users)
}

// AdjustCoins credits or debits a user's balance. The balance update and its
// ledger entry commit together or not at all.
func (h *AdminHandler) AdjustCoins(w http.ResponseWriter, r *http.Request) {
	adminID, _ := GetUserID(r)
	userID := r.PathValue("id")

	var req struct {
		Amount int64  `json:"amount"`
		Deduct bool   `json:"deduct"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	newBalance, err := h.Ledger.AdminAdjust(r.Context(), userID, req.Amount, req.Deduct, req.Reason)
	if errors.Is(err, ledger.ErrProfileNotFound) {
		JSONError(w, "User not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Printf("Coin adjustment by admin %s for user %s failed: %v", adminID, userID, err)
		JSONError(w, "Failed to adjust coins", http.StatusBadRequest)
		return
	}

	JSON(w, map[string]int64{"coins": newBalance})
}

// Static pages

type pageRequest struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
	InMenu    bool   `json:"in_menu"`
	MenuOrder *int   `json:"menu_order"`
}

func (h *AdminHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.DB.ListPages()
	if err != nil {
		log.Printf("Error listing pages: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, pages)
}

func (h *AdminHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Slug == "" || req.Title == "" {
		JSONError(w, "Slug and title are required", http.StatusBadRequest)
		return
	}

	page, err := h.DB.CreatePage(req.Slug, req.Title, req.Content, req.Published, req.InMenu, req.MenuOrder)
	if err != nil {
		log.Printf("Error creating page: %v", err)
		JSONError(w, "Failed to create page (slug might be taken)", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusCreated)
	JSON(w, page)
}

func (h *AdminHandler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.DB.UpdatePage(r.PathValue("id"), req.Slug, req.Title, req.Content, req.Published, req.InMenu, req.MenuOrder); err != nil {
		log.Printf("Error updating page: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) DeletePage(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.DeletePage(r.PathValue("id")); err != nil {
		log.Printf("Error deleting page: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Menu items

type menuItemRequest struct {
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	MenuLocation string  `json:"menu_location"`
	DisplayOrder int     `json:"display_order"`
	ParentID     *string `json:"parent_id"`
	IsActive     bool    `json:"is_active"`
}

func (h *AdminHandler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.DB.ListMenuItems(r.URL.Query().Get("location"), false)
	if err != nil {
		log.Printf("Error listing menu items: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, items)
}

func (h *AdminHandler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.URL == "" || req.MenuLocation == "" {
		JSONError(w, "Title, url and menu_location are required", http.StatusBadRequest)
		return
	}

	item, err := h.DB.CreateMenuItem(req.Title, req.URL, req.MenuLocation, req.DisplayOrder, req.ParentID, req.IsActive)
	if err != nil {
		log.Printf("Error creating menu item: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	JSON(w, item)
}

func (h *AdminHandler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.DB.UpdateMenuItem(r.PathValue("id"), req.Title, req.URL, req.MenuLocation, req.DisplayOrder, req.ParentID, req.IsActive); err != nil {
		log.Printf("Error updating menu item: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.DeleteMenuItem(r.PathValue("id")); err != nil {
		log.Printf("Error deleting menu item: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Payment settings

func (h *AdminHandler) ListPaymentSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.DB.ListPaymentSettings()
	if err != nil {
		log.Printf("Error listing payment settings: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, settings)
}

func (h *AdminHandler) UpsertPaymentSetting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider  string          `json:"provider"`
		IsEnabled bool            `json:"is_enabled"`
		Config    json.RawMessage `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Provider == "" {
		JSONError(w, "Provider is required", http.StatusBadRequest)
		return
	}
	config := "{}"
	if len(req.Config) > 0 {
		config = string(req.Config)
	}

	if err := h.DB.UpsertPaymentSetting(req.Provider, req.IsEnabled, config); err != nil {
		log.Printf("Error saving payment setting: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Site settings

func (h *AdminHandler) UpdateSiteSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SiteName       string `json:"site_name"`
		SiteTagline    string `json:"site_tagline"`
		FooterSiteName string `json:"footer_site_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.DB.UpdateSiteSettings(req.SiteName, req.SiteTagline, req.FooterSiteName); err != nil {
		log.Printf("Error updating site settings: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Featured novels

func (h *AdminHandler) SetFeaturedNovels(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NovelIDs []string `json:"novel_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	for _, novelID := range req.NovelIDs {
		var exists bool
		if err := h.DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM novels WHERE id = ?)`, novelID).Scan(&exists); err != nil {
			JSONError(w, "Database error", http.StatusInternalServerError)
			return
		}
		if !exists {
			JSONError(w, "Novel not found: "+novelID, http.StatusBadRequest)
			return
		}
	}

	if err := h.DB.SetFeaturedNovels(req.NovelIDs); err != nil {
		log.Printf("Error setting featured novels: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Coin packages

type coinPackageRequest struct {
	Name        string  `json:"name"`
	CoinAmount  int64   `json:"coin_amount"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Description *string `json:"description"`
	IsActive    bool    `json:"is_active"`
	IsFeatured  bool    `json:"is_featured"`
}

func (h *AdminHandler) ListCoinPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.DB.ListCoinPackages(false)
	if err != nil {
		log.Printf("Error listing coin packages: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, packages)
}

func (h *AdminHandler) CreateCoinPackage(w http.ResponseWriter, r *http.Request) {
	var req coinPackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.CoinAmount <= 0 || req.Price < 0 {
		JSONError(w, "Name, a positive coin amount and a non-negative price are required", http.StatusBadRequest)
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	pkg, err := h.DB.CreateCoinPackage(req.Name, req.CoinAmount, req.Price, req.Currency, req.Description, req.IsActive, req.IsFeatured)
	if err != nil {
		log.Printf("Error creating coin package: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	JSON(w, pkg)
}

func (h *AdminHandler) UpdateCoinPackage(w http.ResponseWriter, r *http.Request) {
	var req coinPackageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	if err := h.DB.UpdateCoinPackage(r.PathValue("id"), req.Name, req.CoinAmount, req.Price, req.Currency, req.Description, req.IsActive, req.IsFeatured); err != nil {
		log.Printf("Error updating coin package: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) DeleteCoinPackage(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.DeleteCoinPackage(r.PathValue("id")); err != nil {
		log.Printf("Error deleting coin package: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UserTransactions lets an admin inspect any user's ledger.
func (h *AdminHandler) UserTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	exists, err := h.DB.ProfileExists(userID)
	if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	if !exists {
		JSONError(w, "User not found", http.StatusNotFound)
		return
	}

	txs, err := h.DB.ListCoinTransactions(userID, 200)
	if err != nil {
		log.Printf("Error fetching transactions: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, txs)
}
