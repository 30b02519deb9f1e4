// Package sortkey implements the total order over interactions described
// in spec.md §4.1: a string of the form
// <padded block height(12)>,<timestamp(13)>,<hash(64)> such that
// lexicographic byte comparison on the raw string equals the protocol's
// order. Every implementation that folds the same interaction stream
// must agree on this order regardless of fetch order, so the comparison
// here is pure and touches nothing but its arguments.
package sortkey

import (
	"fmt"
	"sort"
	"strings"

	"github.com/warp-contracts/weave-engine/model"
)

const (
	heightWidth = 12
	hashWidth   = 64
)

// genesisSortKey compares less than every real sort-key: it is the empty
// string, which sorts before any non-empty string lexicographically.
const genesisSortKey = ""

// Genesis returns the distinguished key that precedes all real interactions.
func Genesis() string {
	return genesisSortKey
}

// IsGenesis reports whether key is the distinguished genesis sort-key.
func IsGenesis(key string) bool {
	return key == genesisSortKey
}

// Compare does a pure lexicographic byte comparison, returning -1, 0, or 1.
func Compare(a, b string) int {
	return strings.Compare(a, b)
}

// Less reports whether a sorts strictly before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// GenerateLastSortKey yields the greatest key at a given block height:
// <height>,9999999999999,zz...z (64 'z's), which compares greater than any
// real sort-key recorded at that height.
func GenerateLastSortKey(height int64) string {
	return fmt.Sprintf("%0*d,%d,%s", heightWidth, height, 9999999999999, strings.Repeat("z", hashWidth))
}

// Generate derives a sort-key from a block height, timestamp, block id
// and interaction id for interactions that did not arrive with one
// already assigned (spec.md §4.1's <height>,<timestamp>,<hash> scheme).
// The block id and interaction id are folded into a fixed-width
// hash-sized field so the lexicographic property holds even though
// neither is a cryptographic hash.
func Generate(height int64, timestamp int64, blockId string, interactionId string) string {
	tag := blockId + interactionId
	if len(tag) > hashWidth {
		tag = tag[:hashWidth]
	} else if len(tag) < hashWidth {
		tag = tag + strings.Repeat("0", hashWidth-len(tag))
	}
	return fmt.Sprintf("%0*d,%013d,%s", heightWidth, height, timestamp, tag)
}

// For returns i's sort-key, or one derived with Generate if it arrived
// without one; i itself is not modified.
func For(i model.Interaction) string {
	if i.SortKey != "" {
		return i.SortKey
	}
	return Generate(i.Block.Height, i.Block.Timestamp, i.Block.Id, i.Id)
}

// Sort returns interactions ordered ascending by sort-key, assigning a
// derived key to any interaction that lacks one first. The sort is
// stable, and ties (which must not occur by construction) fall back to
// ordering by (block height, block id, id) as a safeguard.
func Sort(interactions []model.Interaction) []model.Interaction {
	result := make([]model.Interaction, len(interactions))
	copy(result, interactions)
	for idx := range result {
		if result[idx].SortKey == "" {
			result[idx].SortKey = For(result[idx])
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.SortKey != b.SortKey {
			return Less(a.SortKey, b.SortKey)
		}
		if a.Block.Height != b.Block.Height {
			return a.Block.Height < b.Block.Height
		}
		if a.Block.Id != b.Block.Id {
			return a.Block.Id < b.Block.Id
		}
		return a.Id < b.Id
	})
	return result
}
