package exporter

import (
	"math"
	"strconv"
)

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// cellValue converts CSV text into the value excelize should store. Numeric
// text becomes a number and empty text stays empty.
func cellValue(s string, numeric bool) interface{} {
	if s == "" {
		return nil
	}
	if !numeric {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
