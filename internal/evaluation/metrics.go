package evaluation

// RecallAtK is the fraction of distinct relevant items present in the first k
// retrieved items. An empty relevant set scores 0.
func RecallAtK(relevant, retrieved []string, k int) float64 {
	want := toSet(relevant)
	if len(want) == 0 {
		return 0
	}

	found := 0
	for _, r := range head(retrieved, k) {
		if _, ok := want[r]; ok {
			found++
			delete(want, r)
		}
	}
	return float64(found) / float64(len(toSet(relevant)))
}

// MRRAtK is the reciprocal rank of the first relevant item within the first k
// retrieved items, or 0 when none is present.
func MRRAtK(relevant, retrieved []string, k int) float64 {
	want := toSet(relevant)
	for i, r := range head(retrieved, k) {
		if _, ok := want[r]; ok {
			return 1 / float64(i+1)
		}
	}
	return 0
}

func head(items []string, k int) []string {
	if k >= 0 && k < len(items) {
		return items[:k]
	}
	return items
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
