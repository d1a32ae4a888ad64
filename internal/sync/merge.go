package sync

import (
	"tally/internal/core"
)

// MergeCategories reconciles a remote category snapshot with the fixed
// seed set. Three steps: start from the seeds, overlay any remote record
// sharing a seed ID (a customized default wins over the built-in), then
// append the remote records that are not seeds. Pure function, inputs are
// not mutated.
func MergeCategories(remoteCats []core.Category) []core.Category {
	byID := make(map[string]core.Category, len(remoteCats))
	for _, c := range remoteCats {
		byID[c.ID] = c
	}

	out := core.SeedCategories()
	for i := range out {
		if r, ok := byID[out[i].ID]; ok {
			out[i] = r
		}
	}
	for _, c := range remoteCats {
		if !core.IsSeedCategoryID(c.ID) {
			out = append(out, c)
		}
	}
	return out
}
