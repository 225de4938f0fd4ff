package stack

import (
	"sort"
	"strings"
)

// DisplayText renders a supplement list as a single human-readable line:
// each period as "name dose frequency" with absent parts omitted, periods
// joined by ", ". A frequency equal to the "unknown" sentinel is treated as
// absent.
func DisplayText(periods []Period) string {
	parts := make([]string, 0, len(periods))
	for _, p := range periods {
		fields := make([]string, 0, 3)
		if name := strings.TrimSpace(p.Name); name != "" {
			fields = append(fields, name)
		}
		if dose := strings.TrimSpace(p.Dose); dose != "" {
			fields = append(fields, dose)
		}
		freq := strings.TrimSpace(p.Frequency)
		if freq != "" && !strings.EqualFold(freq, FrequencyUnknown) {
			fields = append(fields, freq)
		}
		if len(fields) > 0 {
			parts = append(parts, strings.Join(fields, " "))
		}
	}
	return strings.Join(parts, ", ")
}

// DedupKey builds a stable comparison key for a supplement set: one
// case-insensitive, whitespace-trimmed "name|dose|frequency" entry per
// distinct period, sorted lexicographically. Two supplement sets are
// equivalent iff their keys are equal, independent of list order and
// duplicate entries.
func DedupKey(periods []Period) []string {
	seen := make(map[string]bool, len(periods))
	keys := make([]string, 0, len(periods))
	for _, p := range periods {
		key := strings.Join([]string{
			strings.ToLower(strings.TrimSpace(p.Name)),
			strings.ToLower(strings.TrimSpace(p.Dose)),
			strings.ToLower(strings.TrimSpace(p.Frequency)),
		}, "|")
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
