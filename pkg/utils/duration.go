package utils

import (
	"fmt"
	"strings"
	"time"
)

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatElapsed renders a duration as e.g. "2 minutes, 5 seconds and 30 milliseconds".
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	seconds := int(d % time.Minute / time.Second)
	millis := int(d % time.Second / time.Millisecond)

	var parts []string
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 {
		parts = append(parts, plural(seconds, "second"))
	}
	if millis > 0 {
		parts = append(parts, plural(millis, "millisecond"))
	}

	switch len(parts) {
	case 0:
		return "0 milliseconds"
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}
