package archive

import (
	"fmt"
	"time"
)

// FormatDuration renders an elapsed time at human granularity: sub-minute
// runs show seconds, longer runs minutes and seconds, hour-plus runs all
// three.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm%ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
	}
}
