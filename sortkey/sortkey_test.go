package sortkey

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/warp-contracts/weave-engine/model"
)

func TestGenesisComparesLessThanAnyRealKey(t *testing.T) {
	require.True(t, Less(Genesis(), Generate(0, 1000, "block", "tx")))
	require.True(t, IsGenesis(Genesis()))
}

func TestGenerateLastSortKeyIsGreatestAtHeight(t *testing.T) {
	last := GenerateLastSortKey(5)
	ordinary := Generate(5, 1000, "block", "tx")
	require.True(t, Less(ordinary, last))
}

func TestSortIsStableAndAssignsMissingKeys(t *testing.T) {
	interactions := []model.Interaction{
		{Id: "b", Block: model.Block{Height: 2, Id: "bb"}},
		{Id: "a", SortKey: Generate(1, 1000, "aa", "a")},
		{Id: "c", Block: model.Block{Height: 2, Id: "bb"}},
	}
	sorted := Sort(interactions)
	require.Len(t, sorted, 3)
	require.Equal(t, "a", sorted[0].Id)
	// b and c have the same height and block, so their derived sort-keys
	// differ only in the hash field, where the interaction id orders b first.
	require.Equal(t, "b", sorted[1].Id)
	require.Equal(t, "c", sorted[2].Id)
}

func TestCompareIsPureLexicographic(t *testing.T) {
	require.Equal(t, 0, Compare("x", "x"))
	require.True(t, Compare("a", "b") < 0)
	require.True(t, Compare("b", "a") > 0)
}
