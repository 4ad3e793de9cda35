package common

import (
	"fmt"
	"strconv"
	"strings"
)

const bytesInMB = 1024 * 1024

// ParseU64 parses a Move u64 the way the node renders it: a decimal string, possibly
// still JSON-quoted. A 0x prefix switches to base 16.
func ParseU64(s string) (uint64, error) {
	str := strings.TrimSpace(s)
	if unquoted, err := strconv.Unquote(str); err == nil {
		str = strings.TrimSpace(unquoted)
	}

	base := 10
	if rest, ok := strings.CutPrefix(str, "0x"); ok {
		str, base = rest, 16
	}

	v, err := strconv.ParseUint(str, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid u64 %q: %w", s, err)
	}
	return v, nil
}

func BytesToMB(bytes uint64) uint64 {
	return bytes / bytesInMB
}

func ToLowerWithTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
