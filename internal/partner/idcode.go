package partner

import (
	"regexp"
	"strings"
)

// The partner rejects identifiers longer than this.
const maxExternalIDLen = 10

var (
	uuidShape      = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	shortCodeShape = regexp.MustCompile(`^([A-Za-z]+)[-_]?((?:19|20)\d{2})[-_]?(\d+)$`)
	nonAlnum       = regexp.MustCompile(`[^0-9A-Za-z]`)
)

// ExternalID deterministically compresses an internal identifier into a
// token the partner accepts. UUIDs lose their separators and are
// truncated; structured short-codes (prefix + 4-digit year + serial)
// keep the first prefix letter, the last two year digits and the serial.
// Anything else is stripped to alphanumerics and truncated. The same
// input always yields the same token, and the token never exceeds 10
// characters.
func ExternalID(id string) string {
	if uuidShape.MatchString(id) {
		return truncate(strings.ReplaceAll(id, "-", ""))
	}

	if m := shortCodeShape.FindStringSubmatch(id); m != nil {
		prefix, year, serial := m[1], m[2], m[3]
		return truncate(strings.ToUpper(prefix[:1]) + year[2:] + serial)
	}

	return truncate(nonAlnum.ReplaceAllString(id, ""))
}

func truncate(s string) string {
	if len(s) > maxExternalIDLen {
		return s[:maxExternalIDLen]
	}
	return s
}
