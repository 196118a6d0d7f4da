package chart

import (
	"testing"
	"time"

	"github.com/irfndi/powerlaw-overtake/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(values ...float64) models.TimeSeries {
	s := make(models.TimeSeries, len(values))
	for i, v := range values {
		s[i] = models.ObservedPoint{
			Date:             kasGenesis.Add(time.Duration(i+1) * 24 * time.Hour),
			DaysSinceGenesis: float64(i + 1),
			Value:            v,
		}
	}
	return s
}

func TestMovingAverage(t *testing.T) {
	days, values := MovingAverage(series(1, 2, 3, 4, 5), 3)

	require.Len(t, values, 3)
	assert.Equal(t, []float64{3, 4, 5}, days)
	assert.InDelta(t, 2.0, values[0], 1e-12)
	assert.InDelta(t, 3.0, values[1], 1e-12)
	assert.InDelta(t, 4.0, values[2], 1e-12)
}

func TestMovingAverage_Disabled(t *testing.T) {
	days, values := MovingAverage(series(1, 2, 3), 0)
	assert.Nil(t, days)
	assert.Nil(t, values)

	days, values = MovingAverage(series(1, 2), 5)
	assert.Nil(t, days)
	assert.Nil(t, values)
}
