package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/stepviz/internal/metrics"
)

// SummaryLines returns the rise, settling, peak and overshoot lines.
func SummaryLines(r metrics.Result) []string {
	rise := "Rise Time: Undefined"
	if v, ok := r.RiseTime.Value(); ok {
		rise = fmt.Sprintf("Rise Time: %.2f seconds", v)
	}
	settling := "Settling Time: Not found"
	if v, ok := r.SettlingTime.Value(); ok {
		settling = fmt.Sprintf("Settling Time: %.2f seconds", v)
	}
	return []string{
		rise,
		settling,
		fmt.Sprintf("Peak Time: %.2f seconds", r.PeakTime),
		fmt.Sprintf("Overshoot: %.2f%%", r.Overshoot),
	}
}

func Summary(r metrics.Result) string {
	return strings.Join(SummaryLines(r), "\n")
}

// StyledSummary renders the summary lines with labels and values coloured.
func StyledSummary(r metrics.Result, s Styles) string {
	lines := SummaryLines(r)
	for i, line := range lines {
		label, value, _ := strings.Cut(line, ": ")
		lines[i] = s.Label.Render(label+":") + " " + s.Value.Render(value)
	}
	return strings.Join(lines, "\n")
}
