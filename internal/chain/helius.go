package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainfolio/backend/internal/models"
)

const (
	lamportDecimals = 9
	heliusPageLimit = 100
)

// HeliusSource fetches Solana transactions from the Helius enriched
// transaction API.
type HeliusSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

// NewHeliusSource creates the Solana transaction source.
func NewHeliusSource(baseURL, apiKey string, log *zap.Logger) *HeliusSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &HeliusSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

// Chain returns the chain family tag.
func (s *HeliusSource) Chain() models.Chain {
	return models.ChainSolana
}

type heliusNativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"`
}

type heliusTransaction struct {
	Signature       string                 `json:"signature"`
	Timestamp       int64                  `json:"timestamp"`
	NativeTransfers []heliusNativeTransfer `json:"nativeTransfers"`
}

type heliusError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// FetchTransactions retrieves enriched transactions for the address and keeps
// the ones with a native SOL transfer touching it in the given year.
func (s *HeliusSource) FetchTransactions(ctx context.Context, address string, year int) ([]models.Transaction, error) {
	url := fmt.Sprintf("%s/v0/addresses/%s/transactions?api-key=%s&limit=%d",
		s.baseURL, address, s.apiKey, heliusPageLimit)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch solana transactions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr heliusError
		_ = json.Unmarshal(body, &apiErr)
		detail := apiErr.Error
		if detail == "" {
			detail = apiErr.Message
		}
		if detail == "" {
			detail = strings.TrimSpace(string(body))
		}
		return nil, fmt.Errorf("helius returned status %d: %s", resp.StatusCode, detail)
	}

	var raw []heliusTransaction
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode helius response: %w", err)
	}

	var txs []models.Transaction
	for _, item := range raw {
		tx, ok := s.normalize(item, address, year)
		if ok {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

// normalize maps an enriched transaction onto the shared shape using the
// first native transfer that involves the wallet address.
func (s *HeliusSource) normalize(raw heliusTransaction, address string, year int) (models.Transaction, bool) {
	ts := time.Unix(raw.Timestamp, 0).UTC()
	if ts.Year() != year {
		return models.Transaction{}, false
	}

	for _, transfer := range raw.NativeTransfers {
		if transfer.FromUserAccount != address && transfer.ToUserAccount != address {
			continue
		}

		direction := models.DirectionOut
		counterparty := transfer.ToUserAccount
		if transfer.ToUserAccount == address {
			direction = models.DirectionIn
			counterparty = transfer.FromUserAccount
		}

		return models.Transaction{
			Hash:              raw.Signature,
			Chain:             models.ChainSolana,
			Direction:         direction,
			Timestamp:         ts,
			Asset:             models.AssetSOL,
			Amount:            decimal.New(transfer.Amount, -lamportDecimals).Abs(),
			Counterparty:      counterparty,
			CounterpartyShort: Shorten(counterparty),
		}, true
	}
	return models.Transaction{}, false
}
