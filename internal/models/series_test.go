package models

import (
	"math"
	"testing"
	"time"

	"github.com/irfndi/powerlaw-overtake/internal/logscale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeSeries_Bounds(t *testing.T) {
	d1 := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	d3 := d1.AddDate(0, 0, 2)
	s := TimeSeries{
		{Date: d1, DaysSinceGenesis: 55, Value: 1},
		{Date: d2, DaysSinceGenesis: 56, Value: 2},
		{Date: d3, DaysSinceGenesis: 57.5, Value: 3},
	}

	assert.Equal(t, 55.0, s.MinDay())
	assert.Equal(t, 57.5, s.MaxDay())
	assert.Equal(t, d1, s.FirstDate())
	assert.Equal(t, d3, s.LastDate())

	var empty TimeSeries
	assert.True(t, math.IsNaN(empty.MinDay()))
	assert.True(t, math.IsNaN(empty.MaxDay()))
	assert.True(t, empty.FirstDate().IsZero())
	assert.True(t, empty.LastDate().IsZero())
}

func TestReferenceCurve_At(t *testing.T) {
	r := ReferenceCurve{StartDay: 10, Values: []float64{1, 2, 3}}

	v, ok := r.At(10)
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	v, ok = r.At(12)
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	_, ok = r.At(9)
	assert.False(t, ok)
	_, ok = r.At(13)
	assert.False(t, ok)
	assert.Equal(t, 12, r.EndDay())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Prices")
	require.NoError(t, err)
	assert.Equal(t, ModePrices, m)

	m, err = ParseMode("hashrate")
	require.NoError(t, err)
	assert.Equal(t, ModeHashrate, m)

	_, err = ParseMode("volume")
	assert.Error(t, err)
}

func TestParams_KeyIgnoresClock(t *testing.T) {
	a := Params{Asset: "btc", Base: logscale.Base10, Mode: ModePrices, Now: time.Unix(0, 0)}
	b := a
	b.Now = time.Now()
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "prices|btc|10", a.Key())

	b.Base = logscale.Natural
	assert.NotEqual(t, a.Key(), b.Key())
}
