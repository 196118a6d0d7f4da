// Package logscale provides the logarithm bases the projection pipeline can run in.
package logscale

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Base is a tagged logarithm base carrying a matching Log/Pow pair.
type Base int

const (
	Base2 Base = iota
	Base10
	Natural
)

// Bases lists every supported base in display order.
var Bases = []Base{Base2, Base10, Natural}

// Parse accepts "2", "10" or "e" (also "ln"/"natural").
func Parse(s string) (Base, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "2", "log2":
		return Base2, nil
	case "10", "log10":
		return Base10, nil
	case "e", "ln", "natural":
		return Natural, nil
	default:
		return Base2, fmt.Errorf("unsupported log base %q", s)
	}
}

// Log returns log_b(x).
func (b Base) Log(x float64) float64 {
	switch b {
	case Base10:
		return math.Log10(x)
	case Natural:
		return math.Log(x)
	default:
		return math.Log2(x)
	}
}

// Pow is the inverse of Log: b^y.
func (b Base) Pow(y float64) float64 {
	switch b {
	case Base10:
		return math.Pow(10, y)
	case Natural:
		return math.Exp(y)
	default:
		return math.Exp2(y)
	}
}

// String returns the short label used in query parameters.
func (b Base) String() string {
	switch b {
	case Base10:
		return "10"
	case Natural:
		return "e"
	default:
		return "2"
	}
}

func (b Base) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *Base) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// numeric form: 2 or 10
		var n int
		if numErr := json.Unmarshal(data, &n); numErr != nil {
			return err
		}
		s = fmt.Sprint(n)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
