package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/chainfolio/backend/internal/config"
	"github.com/chainfolio/backend/internal/models"
)

const (
	weiDecimals        = 18
	stablecoinDecimals = 6

	// Free-tier explorer APIs allow 5 req/sec; stay under it.
	explorerRequestsPerSecond = 4
)

// EtherscanSource fetches EVM transactions from etherscan-family explorers
// (Ethereum mainnet, Arbitrum). Each explorer contributes native ETH
// transfers plus ERC-20 transfers of the chain-local USDC/USDT contracts.
// A failing explorer is logged and skipped; the others still contribute.
type EtherscanSource struct {
	explorers  []config.ExplorerConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

// NewEtherscanSource creates the EVM transaction source.
func NewEtherscanSource(explorers []config.ExplorerConfig, log *zap.Logger) *EtherscanSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &EtherscanSource{
		explorers:  explorers,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(explorerRequestsPerSecond), 1),
		log:        log,
	}
}

// Chain returns the chain family tag.
func (s *EtherscanSource) Chain() models.Chain {
	return models.ChainEthereum
}

// etherscanEnvelope is the common explorer response wrapper.
type etherscanEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// etherscanTx covers the fields shared by txlist and tokentx records.
type etherscanTx struct {
	Hash            string `json:"hash"`
	TimeStamp       string `json:"timeStamp"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	ContractAddress string `json:"contractAddress"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
}

// FetchTransactions retrieves native and stablecoin transactions for the
// address in the given year, across all configured explorers.
func (s *EtherscanSource) FetchTransactions(ctx context.Context, address string, year int) ([]models.Transaction, error) {
	addr := strings.ToLower(address)
	var all []models.Transaction

	for _, explorer := range s.explorers {
		native, err := s.fetchList(ctx, explorer, "txlist", addr)
		if err != nil {
			s.log.Warn("explorer txlist fetch failed",
				zap.String("explorer", explorer.Name), zap.Error(err))
		} else {
			for _, raw := range native {
				tx, ok := s.normalizeNative(raw, addr, year)
				if ok {
					all = append(all, tx)
				}
			}
		}

		tokens, err := s.fetchList(ctx, explorer, "tokentx", addr)
		if err != nil {
			s.log.Warn("explorer tokentx fetch failed",
				zap.String("explorer", explorer.Name), zap.Error(err))
			continue
		}
		for _, raw := range tokens {
			tx, ok := s.normalizeToken(raw, explorer, addr, year)
			if ok {
				all = append(all, tx)
			}
		}
	}

	return all, nil
}

// fetchList calls one explorer action and decodes the result array.
// Etherscan reports "no transactions found" as status 0, which is treated as
// an empty result rather than an error.
func (s *EtherscanSource) fetchList(ctx context.Context, explorer config.ExplorerConfig, action, address string) ([]etherscanTx, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s?module=account&action=%s&address=%s&startblock=0&endblock=99999999&sort=desc&apikey=%s",
		explorer.BaseURL, action, address, explorer.APIKey)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", action, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", explorer.Name, resp.StatusCode)
	}

	var envelope etherscanEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", action, err)
	}

	if envelope.Status != "1" {
		if strings.Contains(strings.ToLower(envelope.Message), "no transactions found") {
			return nil, nil
		}
		// Rate limits and bad requests come back in-band as status 0.
		return nil, fmt.Errorf("%s %s error: %s", explorer.Name, action, envelope.Message)
	}

	var txs []etherscanTx
	if err := json.Unmarshal(envelope.Result, &txs); err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", action, err)
	}
	return txs, nil
}

// normalizeNative converts a txlist record into the shared shape.
func (s *EtherscanSource) normalizeNative(raw etherscanTx, address string, year int) (models.Transaction, bool) {
	ts, ok := parseUnix(raw.TimeStamp)
	if !ok || ts.UTC().Year() != year {
		return models.Transaction{}, false
	}

	direction := models.DirectionOut
	counterparty := strings.ToLower(raw.To)
	if strings.ToLower(raw.To) == address {
		direction = models.DirectionIn
		counterparty = strings.ToLower(raw.From)
	}

	amount, _ := ParseAmount(raw.Value)
	return models.Transaction{
		Hash:              raw.Hash,
		Chain:             models.ChainEthereum,
		Direction:         direction,
		Timestamp:         ts,
		Asset:             models.AssetETH,
		Amount:            amount.Shift(-weiDecimals),
		Counterparty:      counterparty,
		CounterpartyShort: Shorten(counterparty),
	}, true
}

// normalizeToken converts a tokentx record, keeping only the explorer's
// USDC/USDT contracts.
func (s *EtherscanSource) normalizeToken(raw etherscanTx, explorer config.ExplorerConfig, address string, year int) (models.Transaction, bool) {
	ts, ok := parseUnix(raw.TimeStamp)
	if !ok || ts.UTC().Year() != year {
		return models.Transaction{}, false
	}

	var symbol string
	switch strings.ToLower(raw.ContractAddress) {
	case strings.ToLower(explorer.USDC):
		symbol = models.AssetUSDC
	case strings.ToLower(explorer.USDT):
		symbol = models.AssetUSDT
	default:
		return models.Transaction{}, false
	}

	from := strings.ToLower(raw.From)
	to := strings.ToLower(raw.To)

	direction := models.DirectionOther
	counterparty := ""
	switch {
	case to == address:
		direction = models.DirectionIn
		counterparty = from
	case from == address:
		direction = models.DirectionOut
		counterparty = to
	}

	amount, _ := ParseAmount(raw.Value)
	return models.Transaction{
		Hash:              raw.Hash,
		Chain:             models.ChainEthereum,
		Direction:         direction,
		Timestamp:         ts,
		Asset:             symbol,
		Amount:            amount.Shift(-stablecoinDecimals),
		Counterparty:      counterparty,
		CounterpartyShort: Shorten(counterparty),
	}, true
}

func parseUnix(raw string) (time.Time, bool) {
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0).UTC(), true
}
