package types

import (
	"strconv"
	"strings"
	"time"
)

// CoerceBool converts provider custom-field values to booleans. Providers
// frequently stringify flags ("1", "true", "yes"), so plain strconv is not
// enough.
func CoerceBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// CoerceInt converts provider custom-field values to integers, returning 0
// for anything unparseable.
func CoerceInt(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

// NormalizeCurrency lowercases an ISO 4217 code for storage. Providers get
// the uppercase form on the wire; local records always hold lowercase.
func NormalizeCurrency(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// CoerceUnixTime converts a provider unix timestamp (seconds) to a UTC time
// pointer, nil when zero.
func CoerceUnixTime(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
