package schema

import (
	"strings"
)

// Registry headers required in the asset registry file.
const (
	HeaderSwitch   = "Switch"
	HeaderLongName = "Switch_long_name"
	HeaderLong     = "WGS84 long"
	HeaderLat      = "WGS84 lat"
)

// RegistryHeaders lists the registry headers in the order they are resolved.
var RegistryHeaders = []string{HeaderSwitch, HeaderLongName, HeaderLong, HeaderLat}

// MatchHeader finds want among headers.
//  1. Exact match
//  2. Match after lowercasing and stripping whitespace/underscores/hyphens
//
// The second step tolerates registry exports such as "WGS84_Long".
func MatchHeader(headers []string, want string) (string, bool) {
	for _, h := range headers {
		if h == want {
			return h, true
		}
	}
	normalized := normalizeHeader(want)
	for _, h := range headers {
		if normalizeHeader(h) == normalized {
			return h, true
		}
	}
	return "", false
}

// SuggestHeader returns the header most likely meant by a column name that is
// absent from headers, or "" when nothing is close.
//  1. Normalized equality (case, whitespace, underscores, hyphens)
//  2. Substring match in either direction on normalized forms
func SuggestHeader(headers []string, column string) string {
	normalized := normalizeHeader(column)
	if normalized == "" {
		return ""
	}
	for _, h := range headers {
		if normalizeHeader(h) == normalized {
			return h
		}
	}
	for _, h := range headers {
		nh := normalizeHeader(h)
		if nh == "" {
			continue
		}
		if strings.Contains(nh, normalized) || strings.Contains(normalized, nh) {
			return h
		}
	}
	return ""
}

// normalizeHeader lowercases a header string and strips whitespace, underscores, and hyphens.
func normalizeHeader(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}
