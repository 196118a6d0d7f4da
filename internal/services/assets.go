package services

import (
	"sort"
	"strings"
	"time"

	"github.com/irfndi/powerlaw-overtake/internal/supply"
	"github.com/irfndi/powerlaw-overtake/internal/utils"
)

// Asset describes one chain the pipeline knows how to model.
type Asset struct {
	Symbol string
	// Label is the display name used in series names and R² text.
	Label string
	// HashrateName is the prefix of the asset's hashrate files.
	HashrateName string
	Genesis      time.Time
	Supply       supply.Func
}

// Kaspa is the subject asset every comparison is made against.
var Kaspa = Asset{
	Symbol:       "kas",
	Label:        "Kaspa",
	HashrateName: "kaspa",
	Genesis:      supply.KaspaGenesis,
	Supply:       supply.KaspaSupply,
}

// Bitcoin is the default comparison asset.
var Bitcoin = Asset{
	Symbol:       "btc",
	Label:        "BTC",
	HashrateName: "bitcoin",
	Genesis:      supply.BitcoinGenesis,
	Supply:       supply.BitcoinSupply,
}

// AssetRegistry maps lower-case symbols to comparison assets.
type AssetRegistry map[string]Asset

// DefaultAssets returns the comparison assets with supply models.
func DefaultAssets() AssetRegistry {
	return AssetRegistry{Bitcoin.Symbol: Bitcoin}
}

// Lookup resolves a symbol case-insensitively.
func (r AssetRegistry) Lookup(symbol string) (Asset, error) {
	a, ok := r[strings.ToLower(strings.TrimSpace(symbol))]
	if !ok {
		return Asset{}, utils.NewValidationErrorf("unsupported asset %q (supported: %s)", symbol, strings.Join(r.Symbols(), ", "))
	}
	return a, nil
}

// Symbols lists the registered symbols in order.
func (r AssetRegistry) Symbols() []string {
	out := make([]string, 0, len(r))
	for s := range r {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
