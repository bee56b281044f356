package channels

import "fmt"

// FormatBytes renders a byte count in human-readable SI-binary units
// (B, KB, MB, GB, TB; 1024-based), one decimal place above B. Ported from
// original_source/crates/channels-console/src/lib.rs's format_bytes.
func FormatBytes(n uint64) string {
	if n == 0 {
		return "0 B"
	}

	units := [...]string{"B", "KB", "MB", "GB", "TB"}
	size := float64(n)
	unit := 0
	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}

	if unit == 0 {
		return fmt.Sprintf("%d %s", n, units[unit])
	}
	return fmt.Sprintf("%.1f %s", size, units[unit])
}
