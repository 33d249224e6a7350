package discovery

import "reelscout/internal/record"

// Merge collapses per-query candidate slices into one ordered set keyed by
// canonical identifier. The slices must be supplied in query-rank order; the
// first occurrence of an identifier wins and later occurrences are dropped
// outright, never field-merged. Merging the output with itself is a no-op.
func Merge(batches ...[]record.Candidate) []record.Candidate {
	seen := make(map[string]struct{})
	var merged []record.Candidate
	for _, batch := range batches {
		for _, candidate := range batch {
			if candidate.ID == "" {
				continue
			}
			if _, ok := seen[candidate.ID]; ok {
				continue
			}
			seen[candidate.ID] = struct{}{}
			merged = append(merged, candidate)
		}
	}
	return merged
}
