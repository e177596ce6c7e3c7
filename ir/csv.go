package ir

import "strings"

// ParseCSV splits raw on commas, trims whitespace from each piece, and
// drops empty pieces. Used for args="a,b,c" and either(...)/record(...)
// field lists.
func ParseCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
