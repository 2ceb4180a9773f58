package resolve

import "strings"

// ExtractCity returns the part of a location before the first comma,
// trimmed. ok is false when nothing remains.
func ExtractCity(location string) (city string, ok bool) {
	city, _, _ = strings.Cut(location, ",")
	city = strings.TrimSpace(city)
	return city, city != ""
}

// ParseGreaterStockholm reports whether a yes/no flag says yes. Only
// "yes" and "y" (any case) count; "nej", "no" and blanks are false.
func ParseGreaterStockholm(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y":
		return true
	}
	return false
}

// SplitTags splits a comma-separated tag list, dropping blank entries.
// The result is never nil.
func SplitTags(s string) []string {
	tags := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}
