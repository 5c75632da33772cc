package api

import (
	"net/http"

	"github.com/chapterly/webnovel-go-server/internal/db"
	"github.com/chapterly/webnovel-go-server/internal/ledger"
	"github.com/chapterly/webnovel-go-server/internal/mail"
	"github.com/chapterly/webnovel-go-server/internal/templates"
)

// NewRouter wires every handler into a ServeMux.
func NewRouter(database *db.DB, ledgerSvc *ledger.Service, mailer mail.MailSender, tmpl *templates.Manager, baseURL string) *http.ServeMux {
	authHandler := &AuthHandler{DB: database, Mailer: mailer, Templates: tmpl, BaseURL: baseURL}
	profileHandler := &ProfileHandler{DB: database}
	novelHandler := &NovelHandler{DB: database}
	chapterHandler := &ChapterHandler{DB: database, Ledger: ledgerSvc}
	libraryHandler := &LibraryHandler{DB: database}
	coinHandler := &CoinHandler{DB: database, Ledger: ledgerSvc}
	siteHandler := &SiteHandler{DB: database}
	adminHandler := &AdminHandler{DB: database, Ledger: ledgerSvc}
	mw := &Middleware{DB: database}

	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /", Health)
	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("POST /forgot-password", authHandler.ForgotPassword)
	mux.HandleFunc("POST /reset-password", authHandler.ResetPassword)
	mux.HandleFunc("GET /reset-password-page", authHandler.ResetPasswordPage)

	mux.HandleFunc("GET /novels", novelHandler.List)
	mux.HandleFunc("GET /novels/featured", novelHandler.Featured)
	mux.HandleFunc("GET /novels/{id}", novelHandler.Get)
	mux.HandleFunc("GET /genres", novelHandler.Genres)
	mux.HandleFunc("GET /pages/{slug}", siteHandler.GetPage)
	mux.HandleFunc("GET /menus/{location}", siteHandler.GetMenu)
	mux.HandleFunc("GET /site-settings", siteHandler.GetSettings)
	mux.HandleFunc("GET /coin-packages", coinHandler.ListPackages)

	// Reader routes: lock state depends on who is asking, when anyone is.
	mux.Handle("GET /chapters/{id}", mw.OptionalAuth(http.HandlerFunc(chapterHandler.Read)))

	// Authenticated routes
	mux.Handle("GET /me", mw.RequireAuth(http.HandlerFunc(profileHandler.GetMe)))
	mux.Handle("PATCH /me", mw.RequireAuth(http.HandlerFunc(profileHandler.UpdateMe)))
	mux.Handle("GET /me/coins", mw.RequireAuth(http.HandlerFunc(coinHandler.Balance)))
	mux.Handle("GET /me/transactions", mw.RequireAuth(http.HandlerFunc(coinHandler.Transactions)))
	mux.Handle("GET /me/bookmarks", mw.RequireAuth(http.HandlerFunc(libraryHandler.ListBookmarks)))
	mux.Handle("GET /me/history", mw.RequireAuth(http.HandlerFunc(libraryHandler.ListHistory)))
	mux.Handle("GET /me/novels", mw.RequireAuth(http.HandlerFunc(novelHandler.Mine)))

	mux.Handle("POST /chapters/{id}/unlock", mw.RequireAuth(http.HandlerFunc(chapterHandler.Unlock)))
	mux.Handle("POST /chapters/{id}/progress", mw.RequireAuth(http.HandlerFunc(libraryHandler.SaveProgress)))
	mux.Handle("POST /coin-packages/{id}/checkout", mw.RequireAuth(http.HandlerFunc(coinHandler.Checkout)))

	mux.Handle("POST /novels", mw.RequireAuth(http.HandlerFunc(novelHandler.Create)))
	mux.Handle("PATCH /novels/{id}", mw.RequireAuth(http.HandlerFunc(novelHandler.Update)))
	mux.Handle("DELETE /novels/{id}", mw.RequireAuth(http.HandlerFunc(novelHandler.Delete)))
	mux.Handle("POST /novels/{id}/chapters", mw.RequireAuth(http.HandlerFunc(chapterHandler.Create)))
	mux.Handle("PATCH /chapters/{id}", mw.RequireAuth(http.HandlerFunc(chapterHandler.Update)))
	mux.Handle("DELETE /chapters/{id}", mw.RequireAuth(http.HandlerFunc(chapterHandler.Delete)))

	mux.Handle("PUT /novels/{id}/bookmark", mw.RequireAuth(http.HandlerFunc(libraryHandler.AddBookmark)))
	mux.Handle("DELETE /novels/{id}/bookmark", mw.RequireAuth(http.HandlerFunc(libraryHandler.RemoveBookmark)))
	mux.Handle("PUT /novels/{id}/rating", mw.RequireAuth(http.HandlerFunc(libraryHandler.RateNovel)))
	mux.Handle("GET /novels/{id}/rating", mw.RequireAuth(http.HandlerFunc(libraryHandler.GetMyRating)))

	// Admin routes
	mux.Handle("GET /admin/users", mw.RequireAdmin(http.HandlerFunc(adminHandler.ListUsers)))
	mux.Handle("POST /admin/users/{id}/coins", mw.RequireAdmin(http.HandlerFunc(adminHandler.AdjustCoins)))
	mux.Handle("GET /admin/users/{id}/transactions", mw.RequireAdmin(http.HandlerFunc(adminHandler.UserTransactions)))
	mux.Handle("GET /admin/pages", mw.RequireAdmin(http.HandlerFunc(adminHandler.ListPages)))
	mux.Handle("POST /admin/pages", mw.RequireAdmin(http.HandlerFunc(adminHandler.CreatePage)))
	mux.Handle("PUT /admin/pages/{id}", mw.RequireAdmin(http.HandlerFunc(adminHandler.UpdatePage)))
	mux.Handle("DELETE /admin/pages/{id}", mw.RequireAdmin(http.HandlerFunc(adminHandler.DeletePage)))
	mux.Handle("GET /admin/menu-items", mw.RequireAdmin(http.HandlerFunc(adminHandler.ListMenuItems)))
	mux.Handle("POST /admin/menu-items", mw.RequireAdmin(http.HandlerFunc(adminHandler.CreateMenuItem)))
	mux.Handle("PUT /admin/menu-items/{id}", mw.RequireAdmin(http.HandlerFunc(adminHandler.UpdateMenuItem)))
	mux.Handle("DELETE /admin/menu-items/{id}", mw.RequireAdmin(http.HandlerFunc(adminHandler.DeleteMenuItem)))
	mux.Handle("GET /admin/payment-settings", mw.RequireAdmin(http.HandlerFunc(adminHandler.ListPaymentSettings)))
	mux.Handle("PUT /admin/payment-settings", mw.RequireAdmin(http.HandlerFunc(adminHandler.UpsertPaymentSetting)))
	mux.Handle("PUT /admin/site-settings", mw.RequireAdmin(http.HandlerFunc(adminHandler.UpdateSiteSettings)))
	mux.Handle("PUT /admin/featured-novels", mw.RequireAdmin(http.HandlerFunc(adminHandler.SetFeaturedNovels)))
	mux.Handle("GET /admin/coin-packages", mw.RequireAdmin(http.HandlerFunc(adminHandler.ListCoinPackages)))
	mux.Handle("POST /admin/coin-packages", mw.RequireAdmin(http.HandlerFunc(adminHandler.CreateCoinPackage)))
	mux.Handle("PUT /admin/coin-packages/{id}", mw.RequireAdmin(http.HandlerFunc(adminHandler.UpdateCoinPackage)))
	mux.Handle("DELETE /admin/coin-packages/{id}", mw.RequireAdmin(http.HandlerFunc(adminHandler.DeleteCoinPackage)))

	return mux
}
