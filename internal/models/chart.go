package models

// Plot modes understood by the charting widget.
const (
	PlotModeLines        = "lines"
	PlotModeLinesMarkers = "lines+markers"
)

// PlotSeries is one named trace of log-transformed coordinates.
type PlotSeries struct {
	Name      string    `json:"name"`
	Mode      string    `json:"mode"`
	Color     string    `json:"color,omitempty"`
	Dash      string    `json:"dash,omitempty"`
	X         []float64 `json:"x"`
	Y         []float64 `json:"y"`
	HoverText []string  `json:"hover_text,omitempty"`
}

// Axis carries explicit tick metadata; TickVals are already log-transformed.
type Axis struct {
	Title    string    `json:"title"`
	TickVals []float64 `json:"tickvals"`
	TickText []string  `json:"ticktext"`
}

// ChartLayout is the non-data part of the chart.
type ChartLayout struct {
	Title string `json:"title"`
	XAxis Axis   `json:"xaxis"`
	YAxis Axis   `json:"yaxis"`
}

// Headline is the text block rendered above the chart.
type Headline struct {
	Template string `json:"template"`
	Date     string `json:"date"`
	Duration string `json:"duration"`
	Text     string `json:"text"`
	R2       string `json:"r2"`
	Warning  string `json:"warning,omitempty"`
}
