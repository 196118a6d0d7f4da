package services

import (
	"errors"

	"github.com/irfndi/powerlaw-overtake/internal/datasource"
	"github.com/irfndi/powerlaw-overtake/internal/powerlaw"
	"github.com/irfndi/powerlaw-overtake/internal/series"
	"github.com/irfndi/powerlaw-overtake/internal/utils"
)

// Static messages safe to show to clients.
const (
	MessageNoData       = "No valid data available"
	MessageInsufficient = "Not enough data to fit a power law"
	MessageUnavailable  = "No data available: the data source could not be reached"
	MessageInternal     = "Failed to compute the overtake estimate"
)

// PublicMessage maps a pipeline error onto a message that leaks no internals.
func PublicMessage(err error) string {
	var ve *utils.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, datasource.ErrSourceUnavailable):
		return MessageUnavailable
	case errors.Is(err, series.ErrNoData):
		return MessageNoData
	case errors.Is(err, powerlaw.ErrInsufficientData):
		return MessageInsufficient
	default:
		return MessageInternal
	}
}
