package valuation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainfolio/backend/internal/models"
)

func tx(asset string, direction models.Direction, amount string, ts time.Time) models.Transaction {
	return models.Transaction{
		Hash:      "0x" + asset + ts.Format("0102150405"),
		Chain:     models.ChainEthereum,
		Direction: direction,
		Timestamp: ts,
		Asset:     asset,
		Amount:    decimal.RequireFromString(amount),
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReplay_Empty(t *testing.T) {
	balances := Replay(nil, date(2024, time.December, 31))
	if len(balances) != 0 {
		t.Fatalf("expected empty balances, got %v", balances)
	}
}

func TestReplay_Directions(t *testing.T) {
	txs := []models.Transaction{
		tx(models.AssetETH, models.DirectionIn, "1.5", date(2024, time.January, 5)),
		tx(models.AssetETH, models.DirectionOut, "0.5", date(2024, time.February, 1)),
		tx(models.AssetUSDC, models.DirectionIn, "100", date(2024, time.January, 10)),
		tx(models.AssetUSDC, models.DirectionOther, "9999", date(2024, time.January, 11)),
		tx("PEPE", models.DirectionIn, "1000000", date(2024, time.January, 12)),
	}

	balances := Replay(txs, date(2024, time.December, 31))

	if got := balances[models.AssetETH]; !got.Equal(decimal.RequireFromString("1")) {
		t.Errorf("ETH balance = %s, want 1", got)
	}
	if got := balances[models.AssetUSDC]; !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("USDC balance = %s, want 100 (direction other must not move balances)", got)
	}
	if _, ok := balances["PEPE"]; ok {
		t.Error("unsupported asset must not appear in balances")
	}
}

func TestReplay_CutoffInclusive(t *testing.T) {
	cutoff := date(2024, time.March, 1)
	txs := []models.Transaction{
		tx(models.AssetETH, models.DirectionIn, "1", cutoff),
		tx(models.AssetETH, models.DirectionIn, "1", cutoff.Add(time.Second)),
	}

	balances := Replay(txs, cutoff)
	if got := balances[models.AssetETH]; !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("ETH balance = %s, want 1 (cutoff is inclusive, later tx excluded)", got)
	}
}

func TestReplay_NegativeBalanceAllowed(t *testing.T) {
	txs := []models.Transaction{
		tx(models.AssetUSDC, models.DirectionOut, "40", date(2024, time.January, 2)),
		tx(models.AssetUSDC, models.DirectionIn, "10", date(2024, time.January, 3)),
	}

	balances := Replay(txs, date(2024, time.December, 31))
	if got := balances[models.AssetUSDC]; !got.Equal(decimal.NewFromInt(-30)) {
		t.Errorf("USDC balance = %s, want -30", got)
	}
}

func TestCursor_MatchesFullReplay(t *testing.T) {
	// Deliberately out of order; both paths must sort stably.
	txs := []models.Transaction{
		tx(models.AssetETH, models.DirectionIn, "2", date(2024, time.March, 10)),
		tx(models.AssetETH, models.DirectionIn, "1", date(2024, time.January, 5)),
		tx(models.AssetUSDC, models.DirectionIn, "50", date(2024, time.February, 14)),
		tx(models.AssetETH, models.DirectionOut, "0.25", date(2024, time.April, 1)),
		tx(models.AssetSOL, models.DirectionIn, "10", date(2024, time.April, 20)),
	}

	cutoffs := []time.Time{
		date(2024, time.January, 31),
		date(2024, time.February, 29),
		date(2024, time.March, 31),
		date(2024, time.April, 30),
	}

	cursor := NewCursor(txs)
	for _, cutoff := range cutoffs {
		want := Replay(txs, cutoff)
		got := cursor.Advance(cutoff)
		if len(got) != len(want) {
			t.Fatalf("cutoff %s: cursor has %d assets, full replay has %d", cutoff, len(got), len(want))
		}
		for asset, balance := range want {
			if !got[asset].Equal(balance) {
				t.Errorf("cutoff %s asset %s: cursor = %s, full replay = %s", cutoff, asset, got[asset], balance)
			}
		}
	}
}

func TestClampStablecoins(t *testing.T) {
	balances := map[string]decimal.Decimal{
		models.AssetUSDC: decimal.NewFromInt(-30),
		models.AssetUSDT: decimal.NewFromInt(25),
		models.AssetETH:  decimal.RequireFromString("-1.5"),
	}

	clamped := ClampStablecoins(balances)

	if !clamped[models.AssetUSDC].IsZero() {
		t.Errorf("negative USDC = %s, want 0", clamped[models.AssetUSDC])
	}
	if !clamped[models.AssetUSDT].Equal(decimal.NewFromInt(25)) {
		t.Errorf("positive USDT = %s, want 25", clamped[models.AssetUSDT])
	}
	if !clamped[models.AssetETH].Equal(decimal.RequireFromString("-1.5")) {
		t.Errorf("negative ETH = %s, want -1.5 (only stablecoins clamp)", clamped[models.AssetETH])
	}
	// Input untouched.
	if !balances[models.AssetUSDC].Equal(decimal.NewFromInt(-30)) {
		t.Error("ClampStablecoins must not mutate its input")
	}
}
