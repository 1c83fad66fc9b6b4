package evaluation

import "strings"

// normalizeLabel folds case and spacing so "Common  Cold" matches "common cold".
func normalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

func labelSet(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if n := normalizeLabel(l); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func topK(labels []string, k int) []string {
	if k < len(labels) {
		return labels[:k]
	}
	return labels
}

// RecallAtK computes Recall@K: the fraction of expected labels found in the
// top-K predicted labels. Returns 0.0 if expected is empty.
func RecallAtK(expected, predicted []string, k int) float64 {
	want := labelSet(expected)
	if len(want) == 0 {
		return 0.0
	}

	found := make(map[string]struct{}, len(want))
	for _, p := range topK(predicted, k) {
		n := normalizeLabel(p)
		if _, ok := want[n]; ok {
			found[n] = struct{}{}
		}
	}

	return float64(len(found)) / float64(len(want))
}

// MRRAtK computes the reciprocal rank of the first expected label in the
// top-K predicted labels. Returns 0.0 if none is found.
func MRRAtK(expected, predicted []string, k int) float64 {
	want := labelSet(expected)
	if len(want) == 0 || len(predicted) == 0 {
		return 0.0
	}

	for i, p := range topK(predicted, k) {
		if _, ok := want[normalizeLabel(p)]; ok {
			return 1.0 / float64(i+1)
		}
	}

	return 0.0
}
