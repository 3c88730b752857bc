/*
Package trust implements an escrow registry.

A trustor deposits an amount earmarked for a beneficiary. The trustee can
release it once the release time has passed. Any of the three parties can
dispute an active trust, after which only the arbitrator can settle it,
either refunding the trustor or paying the beneficiary.

Settled funds are never transferred directly. They are credited to the
ledger, minus the fee that is credited to the fee collector, and each party
withdraws its balance separately.

State machine:

	Active --release--> Completed
	Active --dispute--> Disputed
	Disputed --resolve(refund)--> Cancelled
	Disputed --resolve(pay)--> Completed
*/
package trust
