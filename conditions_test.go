package weave_test

import (
	"encoding/json"
	"fmt"
	"testing"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressPrinting(t *testing.T) {
	Convey("test hexademical address printing", t, func() {
		addr := weave.NewAddress([]byte("ABCD123456LHB"))

		So(addr.String(), ShouldEqual, fmt.Sprintf("%X", []byte(addr)))
		So(weave.Address(nil).String(), ShouldEqual, "(nil)")
	})

	Convey("test hexademical condition printing", t, func() {
		cond := weave.NewCondition("12a", "32b", []byte("ABCD123456LHB"))

		So(cond.String(), ShouldNotEqual, fmt.Sprintf("%X", []byte(cond)))
		So(cond.Validate(), ShouldBeNil)
	})
}

func TestAddressBech32RoundTrip(t *testing.T) {
	addr := weave.NewCondition("sigs", "ed25519", []byte("alice")).Address()

	enc, err := addr.Bech32()
	require.NoError(t, err)
	assert.Contains(t, enc, weave.AddressPrefix+"1")

	got, err := weave.ParseAddress(enc)
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	got, err = weave.ParseAddress("bech32:" + enc)
	require.NoError(t, err)
	assert.Equal(t, addr, got)
}

func TestAddressUnmarshalJSON(t *testing.T) {
	cond := weave.NewCondition("foo", "bar", []byte("conditiondata"))
	addr := cond.Address()

	cases := map[string]struct {
		json     string
		wantErr  *errors.Error
		wantAddr weave.Address
	}{
		"default decoding": {
			json:     fmt.Sprintf(`"%s"`, addr),
			wantAddr: addr,
		},
		"hex decoding": {
			json:     fmt.Sprintf(`"hex:%s"`, addr),
			wantAddr: addr,
		},
		"cond decoding": {
			json:     `"cond:foo/bar/636f6e646974696f6e64617461"`,
			wantAddr: addr,
		},
		"invalid condition format": {
			json:    `"cond:foo/636f6e646974696f6e64617461"`,
			wantErr: errors.ErrInvalidInput,
		},
		"invalid condition data": {
			json:    `"cond:foo/bar/zzzzz"`,
			wantErr: errors.ErrInvalidInput,
		},
		"unknown format": {
			json:    `"foobar:xxx"`,
			wantErr: errors.ErrInvalidType,
		},
		"too short": {
			json:    `"6865782d61646472"`,
			wantErr: errors.ErrInvalidInput,
		},
		"empty": {
			json:     `""`,
			wantAddr: nil,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var a weave.Address
			err := json.Unmarshal([]byte(tc.json), &a)
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "got %+v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantAddr, a)
		})
	}
}

func TestAddressValidate(t *testing.T) {
	assert.True(t, errors.ErrEmpty.Is(weave.Address(nil).Validate()))
	assert.True(t, errors.ErrInvalidInput.Is(weave.Address("short").Validate()))
	assert.NoError(t, weave.NewAddress([]byte("x")).Validate())
}

func TestAddressIsZero(t *testing.T) {
	zero, err := weave.ParseAddress("0000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.NoError(t, zero.Validate())
	assert.True(t, zero.IsZero())
	assert.True(t, weave.Address(nil).IsZero())
	assert.False(t, weave.NewAddress([]byte("x")).IsZero())
}

func TestParseCondition(t *testing.T) {
	Convey("conditions survive a string round trip", t, func() {
		c := weave.NewCondition("sigs", "ed25519", []byte{0xca, 0xfe})
		parsed, err := weave.ParseCondition(c.String())
		So(err, ShouldBeNil)
		So(parsed.Equals(c), ShouldBeTrue)
		So(parsed.Address(), ShouldResemble, c.Address())
	})

	Convey("malformed conditions are rejected", t, func() {
		for _, enc := range []string{"", "sigs/ed25519", "sigs/ed25519/nothex", "a/b/CAFE"} {
			_, err := weave.ParseCondition(enc)
			So(errors.ErrInvalidInput.Is(err), ShouldBeTrue)
		}
	})
}
