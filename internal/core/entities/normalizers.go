package entities

import "strings"

// trimPtr trims surrounding whitespace from an optional string in place.
func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// lowerPtr trims and lowercases an optional enum value in place.
func lowerPtr(s *string) {
	if s != nil {
		*s = strings.ToLower(strings.TrimSpace(*s))
	}
}

// deref returns the value of an optional string, or "" when absent.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// overwrite copies src into dst when src is present. Absent candidate fields
// leave the stored value alone.
func overwrite[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// overwriteText is overwrite for optional strings. Blank values are stored as
// NULL on insert, so on merge they count as absent.
func overwriteText(dst **string, src *string) {
	if src != nil && strings.TrimSpace(*src) != "" {
		overwrite(dst, src)
	}
}
