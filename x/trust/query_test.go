package trust

import (
	"testing"
	"time"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/weavetest/assert"
)

func TestQueries(t *testing.T) {
	f := newFixture(t)
	id, _ := f.create(t, 10, f.now.Add(time.Hour))

	qr := weave.NewQueryRouter()
	RegisterQuery(qr)

	res, err := qr.Handler("/trusts").Query(f.db, weave.KeyQueryMod, Key(id))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(res))
	var tr Trust
	assert.Nil(t, tr.Unmarshal(res[0].Value))
	assert.Equal(t, id, tr.ID)

	res, err = qr.Handler("/trusts/user").Query(f.db, weave.KeyQueryMod, f.trustee.Address())
	assert.Nil(t, err)
	assert.Equal(t, 1, len(res))

	res, err = qr.Handler("/trusts").Query(f.db, weave.KeyQueryMod, Key(id+1))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(res))
}
