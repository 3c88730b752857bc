package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGet(t testing.TB, kv ReadOnlyKVStore, key []byte) []byte {
	t.Helper()
	v, err := kv.Get(key)
	require.NoError(t, err)
	return v
}

func mustHas(t testing.TB, kv ReadOnlyKVStore, key []byte) bool {
	t.Helper()
	ok, err := kv.Has(key)
	require.NoError(t, err)
	return ok
}

// TestBTreeCacheGetSet does basic sanity checks on our cache
func TestBTreeCacheGetSet(t *testing.T) {
	base := MemStore()

	// make sure the btree is empty at start but returns results
	// that are writen to it
	k, v := []byte("french"), []byte("fry")
	assert.Nil(t, mustGet(t, base, k))
	assert.False(t, mustHas(t, base, k))
	require.NoError(t, base.Set(k, v))
	assert.Equal(t, v, mustGet(t, base, k))
	assert.True(t, mustHas(t, base, k))

	// now layer another btree on top and make sure that we get
	// base data
	cache := base.CacheWrap()
	assert.Equal(t, v, mustGet(t, cache, k))

	// writing more data is only visible in the cache
	k2, v2 := []byte("LA"), []byte("Dodgers")
	require.NoError(t, cache.Set(k2, v2))
	assert.Equal(t, v2, mustGet(t, cache, k2))
	assert.Nil(t, mustGet(t, base, k2))

	// deletes are also only visible in the cache
	require.NoError(t, cache.Delete(k))
	assert.False(t, mustHas(t, cache, k))
	assert.True(t, mustHas(t, base, k))

	// after write, all data is visible in the base
	require.NoError(t, cache.Write())
	assert.Equal(t, v2, mustGet(t, base, k2))
	assert.False(t, mustHas(t, base, k))
}

func TestBTreeCacheDiscard(t *testing.T) {
	base := MemStore()
	k, v := []byte("balance"), []byte("1000")
	require.NoError(t, base.Set(k, v))

	cache := base.CacheWrap()
	require.NoError(t, cache.Set(k, []byte("0")))
	assert.Equal(t, []byte("0"), mustGet(t, cache, k))
	cache.Discard()

	// a discarded cache does not write anything
	require.NoError(t, cache.Write())
	assert.Equal(t, v, mustGet(t, base, k))
}

func TestBTreeCacheIterator(t *testing.T) {
	base := MemStore()
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, base.Set([]byte(k), []byte("base-"+k)))
	}
	cache := base.CacheWrap()
	require.NoError(t, cache.Delete([]byte("b")))
	require.NoError(t, cache.Set([]byte("c"), []byte("cache-c")))
	require.NoError(t, cache.Set([]byte("ca"), []byte("cache-ca")))
	require.NoError(t, cache.Delete([]byte("e")))

	cases := map[string]struct {
		start, end []byte
		reverse    bool
		want       []string
	}{
		"full range": {
			want: []string{"a=base-a", "c=cache-c", "ca=cache-ca", "d=base-d"},
		},
		"bounded range": {
			start: []byte("b"),
			end:   []byte("d"),
			want:  []string{"c=cache-c", "ca=cache-ca"},
		},
		"open end": {
			start: []byte("ca"),
			want:  []string{"ca=cache-ca", "d=base-d"},
		},
		"reverse": {
			reverse: true,
			want:    []string{"d=base-d", "ca=cache-ca", "c=cache-c", "a=base-a"},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var (
				it  Iterator
				err error
			)
			if tc.reverse {
				it, err = cache.ReverseIterator(tc.start, tc.end)
			} else {
				it, err = cache.Iterator(tc.start, tc.end)
			}
			require.NoError(t, err)
			defer it.Close()

			var got []string
			for ; it.Valid(); require.NoError(t, it.Next()) {
				got = append(got, string(it.Key())+"="+string(it.Value()))
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNonAtomicBatch(t *testing.T) {
	base := MemStore()
	b := base.NewBatch()
	require.NoError(t, b.Set([]byte("k"), []byte("v")))
	assert.Nil(t, mustGet(t, base, []byte("k")))
	require.NoError(t, b.Write())
	assert.Equal(t, []byte("v"), mustGet(t, base, []byte("k")))

	require.NoError(t, b.Delete([]byte("k")))
	require.NoError(t, b.Write())
	assert.False(t, mustHas(t, base, []byte("k")))
}
