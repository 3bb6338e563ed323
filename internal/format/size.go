// Package format renders values for display.
package format

import "fmt"

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with 1024 based units and two decimals, e.g. "1.50 MB".
// Sizes beyond the largest unit stay in TB.
func FormatSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	sign := ""
	if bytes < 0 {
		sign = "-"
		bytes = -bytes
	}
	value := float64(bytes)
	i := 0
	for value >= 1024 && i < len(sizeUnits)-1 {
		value /= 1024
		i++
	}
	return fmt.Sprintf("%s%.2f %s", sign, value, sizeUnits[i])
}
