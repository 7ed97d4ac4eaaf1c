package utils

import "github.com/dustin/go-humanize"

// FormatFileSize converts a byte length into a human-readable SI unit string.
func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.Bytes(uint64(bytes))
}
