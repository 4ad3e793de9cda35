package events

import "github.com/shopspring/decimal"

// Bet tiers of the arcade lobby.
const (
	TierBronze   = 1
	TierSilver   = 2
	TierGold     = 3
	TierDiamond  = 4
	DefaultTier  = TierBronze
	octasPerCoin = 100_000_000
)

var tierByAmount = map[int64]int{
	10_000_000:       TierBronze,  // 0.1 APT
	50_000_000:       TierSilver,  // 0.5 APT
	octasPerCoin:     TierGold,    // 1 APT
	5 * octasPerCoin: TierDiamond, // 5 APT
}

// BetTier maps an exact bet amount to its lobby tier. Any other amount falls into DefaultTier.
func BetTier(amount decimal.Decimal) int {
	if !amount.IsInteger() || !amount.BigInt().IsInt64() {
		return DefaultTier
	}
	if tier, ok := tierByAmount[amount.IntPart()]; ok {
		return tier
	}
	return DefaultTier
}
