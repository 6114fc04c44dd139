// Package handlers exposes the portfolio surfaces over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chainfolio/backend/internal/models"
	"github.com/chainfolio/backend/internal/services"
)

type PortfolioHandler struct {
	service        services.PortfolioService
	defaultWallets []services.WalletRef
}

// NewPortfolioHandler creates the handler. defaultWallets are used when the
// request names no address.
func NewPortfolioHandler(service services.PortfolioService, defaultWallets []services.WalletRef) *PortfolioHandler {
	return &PortfolioHandler{service: service, defaultWallets: defaultWallets}
}

// HandleStats handles GET /api/portfolio/stats
func (h *PortfolioHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
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

	req := services.StatsRequest{
		Wallets:     wallets,
		Year:        parseYear(r),
		Currency:    parseCurrency(r),
		HideSmallTx: parseBool(r, "hideSmallTx"),
	}

	stats, err := h.service.GetStats(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	json.NewEncoder(w).Encode(stats)
}

// resolveWallets resolves the wallet set: an explicit address (with its
// chain, defaulting to ethereum) wins over the configured defaults.
func resolveWallets(r *http.Request, defaults []services.WalletRef) []services.WalletRef {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		return defaults
	}
	chainParam := models.Chain(strings.ToLower(r.URL.Query().Get("chain")))
	if chainParam == "" {
		chainParam = models.ChainEthereum
	}
	return []services.WalletRef{{Address: address, Chain: chainParam}}
}

func parseYear(r *http.Request) int {
	if raw := r.URL.Query().Get("year"); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil && year > 2000 {
			return year
		}
	}
	return time.Now().UTC().Year()
}

func parseCurrency(r *http.Request) string {
	currency := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency")))
	if currency != models.CurrencyUSD && currency != models.CurrencyEUR {
		return models.CurrencyUSD
	}
	return currency
}

func parseBool(r *http.Request, name string) bool {
	value, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && value
}
