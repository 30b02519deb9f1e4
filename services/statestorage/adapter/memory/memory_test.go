package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetMissingReturnsNotFound(t *testing.T) {
	a := New()
	_, ok, err := a.Get("c1", "k1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPutThenGetRoundTrips(t *testing.T) {
	a := New()
	require.NoError(t, a.Put("c1", "000000000001,1,a", []byte("v1")))
	v, ok, err := a.Get("c1", "000000000001,1,a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v1"), v)
}

func TestGetLastReturnsGreatestKey(t *testing.T) {
	a := New()
	require.NoError(t, a.Put("c1", "000000000001,1,a", []byte("v1")))
	require.NoError(t, a.Put("c1", "000000000003,1,c", []byte("v3")))
	require.NoError(t, a.Put("c1", "000000000002,1,b", []byte("v2")))

	key, value, ok, err := a.GetLast("c1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "000000000003,1,c", key)
	require.Equal(t, []byte("v3"), value)
}

func TestGetLessOrEqualFindsGreatestNotExceeding(t *testing.T) {
	a := New()
	require.NoError(t, a.Put("c1", "000000000001,1,a", []byte("v1")))
	require.NoError(t, a.Put("c1", "000000000003,1,c", []byte("v3")))

	key, value, ok, err := a.GetLessOrEqual("c1", "000000000002,1,b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "000000000001,1,a", key)
	require.Equal(t, []byte("v1"), value)
}

func TestGetLessOrEqualBelowEverythingIsNotFound(t *testing.T) {
	a := New()
	require.NoError(t, a.Put("c1", "000000000003,1,c", []byte("v3")))

	_, _, ok, err := a.GetLessOrEqual("c1", "000000000001,1,a")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeleteRemovesEntry(t *testing.T) {
	a := New()
	require.NoError(t, a.Put("c1", "k1", []byte("v1")))
	require.NoError(t, a.Delete("c1", "k1"))
	_, ok, err := a.Get("c1", "k1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAllContractsListsEachOnce(t *testing.T) {
	a := New()
	require.NoError(t, a.Put("c1", "k1", []byte("v1")))
	require.NoError(t, a.Put("c1", "k2", []byte("v2")))
	require.NoError(t, a.Put("c2", "k1", []byte("v1")))

	contracts, err := a.AllContracts()
	require.NoError(t, err)
	require.Equal(t, []string{"c1", "c2"}, contracts)
}

func TestPruneKeepLastNRetainsMostRecent(t *testing.T) {
	a := New()
	require.NoError(t, a.Put("c1", "000000000001,1,a", []byte("v1")))
	require.NoError(t, a.Put("c1", "000000000002,1,b", []byte("v2")))
	require.NoError(t, a.Put("c1", "000000000003,1,c", []byte("v3")))

	require.NoError(t, a.PruneKeepLastN("c1", 2))

	keys, err := a.Keys("c1")
	require.NoError(t, err)
	require.Equal(t, []string{"000000000002,1,b", "000000000003,1,c"}, keys)
}
