package share

import "fmt"

// NormalizeSelection validates a user's block selection, removes duplicates,
// pulls in missing prerequisites, and returns the result in render order.
// Selecting league_name without rank is legal input; rank just comes along.
func NormalizeSelection(sel []ContentBlock) ([]ContentBlock, error) {
	selected := make(map[ContentBlock]bool, len(sel))
	for _, b := range sel {
		if _, ok := configs[b]; !ok {
			return nil, fmt.Errorf("unknown content block: %s", b)
		}
		selected[b] = true
	}

	// Requires chains are at most one level deep today, but resolve as a
	// fixpoint so a deeper registry keeps working.
	for changed := true; changed; {
		changed = false
		for b := range selected {
			for _, req := range configs[b].Requires {
				if !selected[req] {
					selected[req] = true
					changed = true
				}
			}
		}
	}

	var out []ContentBlock
	for _, c := range registry {
		if selected[c.Block] {
			out = append(out, c.Block)
		}
	}
	return out, nil
}

// RemoveBlock removes a block from a selection along with every block that
// transitively depends on it. Removing rank also drops league_name and
// league_average.
func RemoveBlock(sel []ContentBlock, b ContentBlock) []ContentBlock {
	removed := map[ContentBlock]bool{b: true}

	for changed := true; changed; {
		changed = false
		for _, s := range sel {
			if removed[s] {
				continue
			}
			for _, req := range configs[s].Requires {
				if removed[req] {
					removed[s] = true
					changed = true
				}
			}
		}
	}

	var out []ContentBlock
	for _, s := range sel {
		if !removed[s] {
			out = append(out, s)
		}
	}
	return out
}
