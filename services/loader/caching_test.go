package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warp-contracts/weave-engine/model"
)

func TestCachingMemoizesWithinSameWindow(t *testing.T) {
	calls := 0
	inner := LoaderFunc(func(ctx context.Context, contract string, from string, to string, opts Options) ([]model.Interaction, error) {
		calls++
		return []model.Interaction{{Id: "a", SortKey: "1"}, {Id: "b", SortKey: "2"}}, nil
	})

	c := NewCaching(inner)
	first, err := c.Load(context.Background(), "contract-1", "", "2", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := c.Load(context.Background(), "contract-1", "", "2", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, second, 2)
	require.Equal(t, 1, calls)
}

func TestCachingExtendsIncrementallyPastLastCachedKey(t *testing.T) {
	var seenFrom []string
	inner := LoaderFunc(func(ctx context.Context, contract string, from string, to string, opts Options) ([]model.Interaction, error) {
		seenFrom = append(seenFrom, from)
		if from == "" {
			return []model.Interaction{{Id: "a", SortKey: "1"}, {Id: "b", SortKey: "2"}}, nil
		}
		return []model.Interaction{{Id: "c", SortKey: "3"}}, nil
	})

	c := NewCaching(inner)
	first, err := c.Load(context.Background(), "contract-1", "", "2", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := c.Load(context.Background(), "contract-1", "", "3", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, second, 3)
	require.Equal(t, []string{"", "2"}, seenFrom)
}

func TestFilterAppliesWindowAndOptions(t *testing.T) {
	interactions := []model.Interaction{
		{Id: "a", SortKey: "1", ConfirmationStatus: model.ConfirmationConfirmed},
		{Id: "b", SortKey: "2", ConfirmationStatus: model.ConfirmationCorrupted},
		{Id: "c", SortKey: "3", ConfirmationStatus: model.ConfirmationConfirmed},
	}

	out := Filter(interactions, "1", "3", Options{Confirmation: ConfirmationFilterNotCorrupted, Source: SourceFilterAny})
	require.Len(t, out, 1)
	require.Equal(t, "c", out[0].Id)
}
