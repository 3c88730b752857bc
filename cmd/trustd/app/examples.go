package app

import (
	"time"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/commands"
	"github.com/iov-one/trustd/x/ledger"
	"github.com/iov-one/trustd/x/trust"
)

// Examples returns sample encodings of every stored model, used to generate
// test vectors for clients.
func Examples() []commands.Example {
	trustor := weave.NewCondition("sigs", "ed25519", []byte{1, 2, 3}).Address()
	trustee := weave.NewCondition("sigs", "ed25519", []byte{4, 5, 6}).Address()
	benef := weave.NewCondition("sigs", "ed25519", []byte{7, 8, 9}).Address()
	created := weave.AsUnixTime(time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC))

	return []commands.Example{
		{Filename: "trust", Obj: &trust.Trust{
			ID:          1,
			Trustor:     trustor,
			Trustee:     trustee,
			Beneficiary: benef,
			Amount:      1000,
			ReleaseTime: created.Add(24 * time.Hour),
			CreatedAt:   created,
			Status:      trust.StatusActive,
			Description: "rent deposit",
		}},
		{Filename: "create_msg", Obj: &trust.CreateMsg{
			Trustee:     trustee,
			Beneficiary: benef,
			ReleaseTime: created.Add(24 * time.Hour),
			Description: "rent deposit",
			Amount:      1000,
		}},
		{Filename: "resolve_msg", Obj: &trust.ResolveMsg{TrustID: 1, RefundToTrustor: true}},
		{Filename: "balance", Obj: &ledger.Balance{Amount: 990}},
		{Filename: "payout", Obj: &ledger.Payout{Recipient: benef, Amount: 990, CreatedAt: created}},
	}
}
