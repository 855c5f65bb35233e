package core

import "sort"

// DefaultCategories are offered to every user regardless of history.
var DefaultCategories = []string{
	"Food", "Transport", "Shopping", "Entertainment",
	"Health", "Utilities", "Housing", "Education", "Other",
}

// MergeCategories returns the union of DefaultCategories and used,
// deduplicated by exact match and sorted lexicographically.
func MergeCategories(used []string) []string {
	seen := make(map[string]struct{}, len(DefaultCategories)+len(used))
	out := make([]string, 0, len(DefaultCategories)+len(used))
	for _, list := range [][]string{DefaultCategories, used} {
		for _, c := range list {
			if c == "" {
				continue
			}
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
