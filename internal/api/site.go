package api

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/chapterly/webnovel-go-server/internal/db"
)

// SiteHandler serves public site chrome: static pages, menus and settings.
type SiteHandler struct {
	DB *db.DB
}

func (h *SiteHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.DB.GetPageBySlug(r.PathValue("slug"))
	if err == sql.ErrNoRows {
		JSONError(w, "Page not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Printf("Error fetching page: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	if !page.Published {
		JSONError(w, "Page not found", http.StatusNotFound)
		return
	}
	JSON(w, page)
}

func (h *SiteHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.DB.ListMenuItems(r.PathValue("location"), true)
	if err != nil {
		log.Printf("Error fetching menu: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, items)
}

func (h *SiteHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.DB.GetSiteSettings()
	if err == sql.ErrNoRows {
		// Fresh install without a settings row yet; serve defaults.
		JSON(w, map[string]string{
			"site_name":        "Webnovel",
			"site_tagline":     "",
			"footer_site_name": "Webnovel",
		})
		return
	} else if err != nil {
		log.Printf("Error fetching site settings: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, settings)
}
