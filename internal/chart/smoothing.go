package chart

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/irfndi/powerlaw-overtake/internal/models"
)

// MovingAverage returns the period-day simple moving average of the observed values,
// aligned with the observation each window ends on. Series shorter than the period, or
// a period below 2, produce nothing.
func MovingAverage(s models.TimeSeries, period int) (days, values []float64) {
	if period < 2 || len(s) < period {
		return nil, nil
	}
	raw := make([]float64, len(s))
	for i, p := range s {
		raw[i] = p.Value
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	smoothed := helper.ChanToSlice(sma.Compute(helper.SliceToChan(raw)))

	offset := len(s) - len(smoothed)
	days = make([]float64, len(smoothed))
	for i := range smoothed {
		days[i] = s[i+offset].DaysSinceGenesis
	}
	return days, smoothed
}
