package timeutil

import "time"

// CompactLayout is the YYYYMMDDHHMMSS layout M-Pesa uses for request timestamps
const CompactLayout = "20060102150405"

// Now returns the current time in UTC
// Always use this instead of time.Now() to ensure timezone consistency
func Now() time.Time {
	return time.Now().UTC()
}

// FormatCompact renders t in UTC using CompactLayout
func FormatCompact(t time.Time) string {
	return t.UTC().Format(CompactLayout)
}
