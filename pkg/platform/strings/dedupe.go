// Package strings holds string helpers shared by request parsing.
package strings

import "strings"

// SplitUnique splits raw on sep, trims each part and drops empty parts and
// repeats. First occurrence wins, so order is preserved.
func SplitUnique(raw, sep string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, sep)
	out := parts[:0]
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
