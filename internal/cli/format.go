package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// FormatValue formats a price or delta with exactly precision decimals. A
// negative precision prints the shortest exact representation.
func FormatValue(v float64, precision int) string {
	if precision < 0 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(int32(precision))
}

// FormatElapsed formats a pricing run time.
func FormatElapsed(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.3fs", d.Seconds())
	}
}

// FormatDateTime formats a timestamp in local time.
func FormatDateTime(t time.Time) string {
	return t.Local().Format("02-Jan-2006 15:04:05")
}

// FormatPercent formats a rate as a percentage.
func FormatPercent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}
