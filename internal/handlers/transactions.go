package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/chainfolio/backend/internal/services"
)

type TransactionHandler struct {
	service        services.PortfolioService
	defaultWallets []services.WalletRef
}

func NewTransactionHandler(service services.PortfolioService, defaultWallets []services.WalletRef) *TransactionHandler {
	return &TransactionHandler{service: service, defaultWallets: defaultWallets}
}

// HandleList handles GET /api/transactions
func (h *TransactionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	wallets := resolveWallets(r, h.defaultWallets)
	if len(wallets) == 0 {
		http.Error(w, "no wallet address configured or given", http.StatusBadRequest)
		return
	}

	req := services.ListRequest{
		Wallets:     wallets,
		Year:        parseYear(r),
		Currency:    parseCurrency(r),
		HideSmallTx: parseBool(r, "hideSmallTx"),
		Page:        parseInt(r, "page", 1),
		PageSize:    parseInt(r, "pageSize", 10),
	}

	page, err := h.service.ListTransactions(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	json.NewEncoder(w).Encode(page)
}

func parseInt(r *http.Request, name string, fallback int) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			return value
		}
	}
	return fallback
}
