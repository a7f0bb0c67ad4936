package sqlite

import (
	"fmt"
	"time"

	"github.com/fwojciec/doccrawl"
)

// formatTime formats a timestamp for storage. The zero time is stored as "".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a stored timestamp. An empty value yields the zero time.
// Returns an error if parsing fails with a descriptive message including the field name.
func parseTime(value, fieldName string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return t, nil
}

// storageError marks a database failure so that it aborts the crawl.
func storageError(err error, format string, args ...any) error {
	return doccrawl.Errorf(doccrawl.ESTORAGE, "%s: %v", fmt.Sprintf(format, args...), err)
}
