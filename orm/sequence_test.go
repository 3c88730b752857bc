package orm

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/iov-one/trustd/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence(t *testing.T) {
	db := store.MemStore()

	cases := []struct {
		bucket     string
		name       string
		increments int64
	}{
		0: {"trusts", "id", 22},
		1: {"trusts", "other", 11},
		2: {"balances", "id", 77},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("case-%d", i), func(t *testing.T) {
			s := NewSequence(tc.bucket, tc.name)
			init, err := s.Latest(db)
			require.NoError(t, err)
			orig := EncodeSequence(init)

			var val int64
			for i := int64(0); i < tc.increments; i++ {
				val, err = s.NextInt(db)
				require.NoError(t, err)
			}
			assert.Equal(t, init+tc.increments, val)

			latest, err := s.Latest(db)
			require.NoError(t, err)
			assert.Equal(t, val, latest)

			// raw bytes must keep the numerical order
			assert.Equal(t, 1, bytes.Compare(EncodeSequence(latest), orig))
		})
	}
}

func TestSequenceEncoding(t *testing.T) {
	assert.Equal(t, int64(0), DecodeSequence(nil))
	for _, v := range []int64{1, 255, 256, 1 << 40} {
		assert.Equal(t, v, DecodeSequence(EncodeSequence(v)))
	}
}
