package logger

import (
	"fmt"

	"github.com/fatih/color"
)

// colorScheme defines consistent colors for summary metrics.
// Green: success counts
// Red: skipped or failed counts
// Yellow: limits that were hit
// Cyan: labels
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
	value   *color.Color
}

// newColorScheme creates the standard color scheme for metrics.
func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
		value:   color.New(color.FgWhite),
	}
}

// formatColorizedMetric formats a single metric as "label: value" with a
// cyan label. A nil valueColor uses the scheme's neutral value color.
func formatColorizedMetric(label string, value interface{}, valueColor *color.Color, scheme *colorScheme) string {
	if valueColor == nil {
		valueColor = scheme.value
	}
	return fmt.Sprintf("%s: %s", scheme.label.Sprint(label), valueColor.Sprintf("%v", value))
}

// skippedColor picks red for a non-zero skipped count, green otherwise.
func skippedColor(skipped int64, scheme *colorScheme) *color.Color {
	if skipped > 0 {
		return scheme.fail
	}
	return scheme.success
}
