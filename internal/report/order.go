package report

import "sort"

// Order returns a sorted copy of reports in resolution order: test date
// ascending, then creation timestamp ascending, then ID ascending. The final
// ID tie-break makes the order total even for same-day reports created in
// the same second, which matters because resolution output depends on
// traversal order. The input slice is not modified.
func Order(reports []Report) []Report {
	out := make([]Report, len(reports))
	copy(out, reports)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TestDate != out[j].TestDate {
			return out[i].TestDate < out[j].TestDate
		}
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}
