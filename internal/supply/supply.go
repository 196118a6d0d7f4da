// Package supply models circulating supply over time from each asset's issuance schedule.
package supply

import (
	"math"
	"time"
)

// Func returns circulating supply at a point in time.
type Func func(at time.Time) float64

// Genesis instants of the two modelled chains.
var (
	BitcoinGenesis = time.Date(2009, 1, 3, 0, 0, 0, 0, time.UTC)
	KaspaGenesis   = time.Date(2021, 11, 7, 0, 0, 0, 0, time.UTC)
)

const (
	BitcoinBlockInterval   = 10 * time.Minute
	BitcoinHalvingInterval = 210000
	BitcoinInitialReward   = 50.0
)

// Kaspa emission schedule.
var (
	// KaspaBootstrapEnd closes the first two weeks after genesis.
	KaspaBootstrapEnd = time.Date(2021, 11, 21, 0, 0, 0, 0, time.UTC)
	// KaspaDeflationaryStart is the cutover to the decaying reward.
	KaspaDeflationaryStart = time.Date(2022, 5, 8, 0, 0, 0, 0, time.UTC)
)

const (
	KaspaPreDeflationaryRate = 500.0
	KaspaDeflationaryReward  = 440.0
	// KaspaDecayPeriodSeconds is one 365.25-day year.
	KaspaDecayPeriodSeconds = 365.25 * 24 * 60 * 60
)

// KaspaDecayFactor is applied to the per-second reward after each decay period.
var KaspaDecayFactor = math.Pow(0.5, 1.0/12.0)

// BitcoinBlocksMined returns whole blocks produced between genesis and at.
func BitcoinBlocksMined(at time.Time) int64 {
	return int64(math.Floor(float64(at.Sub(BitcoinGenesis)) / float64(BitcoinBlockInterval)))
}

// BitcoinSupplyAtHeight sums the block rewards of the first blocks blocks.
func BitcoinSupplyAtHeight(blocks int64) float64 {
	total := 0.0
	reward := BitcoinInitialReward
	var processed int64
	for processed < blocks {
		inEpoch := blocks - processed
		if inEpoch > BitcoinHalvingInterval {
			inEpoch = BitcoinHalvingInterval
		}
		total += float64(inEpoch) * reward
		processed += inEpoch
		reward /= 2
	}
	return total
}

// BitcoinSupply is the fixed-halving model evaluated at a date.
func BitcoinSupply(at time.Time) float64 {
	return BitcoinSupplyAtHeight(BitcoinBlocksMined(at))
}

// KaspaSupply is the three-phase time-emission model evaluated at a date.
func KaspaSupply(at time.Time) float64 {
	bootstrapSeconds := KaspaBootstrapEnd.Sub(KaspaGenesis).Seconds()
	constantSeconds := KaspaDeflationaryStart.Sub(KaspaBootstrapEnd).Seconds()

	if !at.After(KaspaBootstrapEnd) {
		return KaspaPreDeflationaryRate * at.Sub(KaspaGenesis).Seconds()
	}

	supply := KaspaPreDeflationaryRate * bootstrapSeconds
	if !at.After(KaspaDeflationaryStart) {
		return supply + KaspaPreDeflationaryRate*at.Sub(KaspaBootstrapEnd).Seconds()
	}
	supply += KaspaPreDeflationaryRate * constantSeconds

	remaining := at.Sub(KaspaDeflationaryStart).Seconds()
	reward := KaspaDeflationaryReward
	elapsed := 0.0
	for elapsed < remaining {
		period := math.Min(KaspaDecayPeriodSeconds, remaining-elapsed)
		supply += reward * period
		reward *= KaspaDecayFactor
		elapsed += period
	}
	return supply
}

// ParityPriceEpsilon keeps the parity ratio away from an exact zero.
const ParityPriceEpsilon = 1e-8

// ParityPrice is the subject price, in units of the comparison asset, at which both
// market caps are equal.
func ParityPrice(comparison, subject Func, at time.Time) float64 {
	return comparison(at)/subject(at) + ParityPriceEpsilon
}
