package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/chapterly/webnovel-go-server/internal/db"
	"github.com/chapterly/webnovel-go-server/internal/ledger"
)

type CoinHandler struct {
	DB     *db.DB
	Ledger *ledger.Service
}

func (h *CoinHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	balance, err := h.DB.GetCoinBalance(userID)
	if err != nil {
		log.Printf("Error fetching balance: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, map[string]int64{"coins": balance})
}

func (h *CoinHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	txs, err := h.DB.ListCoinTransactions(userID, limit)
	if err != nil {
		log.Printf("Error fetching transactions: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, txs)
}

func (h *CoinHandler) ListPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.DB.ListCoinPackages(true)
	if err != nil {
		log.Printf("Error fetching coin packages: %v", err)
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSON(w, packages)
}

// Checkout credits a coin package to the caller's balance. Payment capture
// happens out of band; this endpoint is the fulfillment step.
func (h *CoinHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r)
	if !ok {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	newBalance, err := h.Ledger.CreditPackage(r.Context(), userID, r.PathValue("id"))
	if errors.Is(err, ledger.ErrPackageNotFound) {
		JSONError(w, "Coin package not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Printf("Checkout failed for user %s: %v", userID, err)
		JSONError(w, "Failed to credit coins", http.StatusInternalServerError)
		return
	}

	JSON(w, map[string]int64{"coins": newBalance})
}
