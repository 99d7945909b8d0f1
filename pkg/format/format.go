package format

import (
	"fmt"
	"time"
)

const (
	zeroLatency  = "0ms"
	neverChecked = "never"
)

func Bytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.2f %s", float64(bytes)/float64(div), units[exp])
}

// Latency renders a duration the way humans read response times.
func Latency(d time.Duration) string {
	if d == 0 {
		return zeroLatency
	}
	if d >= time.Second {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}

// Since renders how long ago t was, or "never" for the zero time.
func Since(t time.Time) string {
	if t.IsZero() {
		return neverChecked
	}
	d := time.Since(t)
	if d < time.Second {
		return "just now"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh%dm ago", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm%ds ago", minutes, seconds)
	default:
		return fmt.Sprintf("%ds ago", seconds)
	}
}

// NodesUp renders a healthy/total summary.
func NodesUp(alive, total int) string {
	return fmt.Sprintf("%d/%d", alive, total)
}
