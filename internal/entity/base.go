package entity

import "time"

// NowUnixMilli returns current unix timestamp in milliseconds
func NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}

// FormatMilli renders a unix-milli timestamp as RFC3339, the wire format
// for all *At fields in API responses and pushed events.
func FormatMilli(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
}

// FormatMilliPtr renders an optional timestamp; nil stays nil so the
// field is omitted from JSON.
func FormatMilliPtr(ms *int64) *string {
	if ms == nil {
		return nil
	}
	s := FormatMilli(*ms)
	return &s
}
