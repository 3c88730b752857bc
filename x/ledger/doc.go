/*
Package ledger keeps the withdrawable balance of every account.

Balances are credited only by other extensions through the Controller (the
trust registry credits them when a trust settles). The only debit path is
the withdraw message: the balance is zeroed first and the full amount is then
handed to a Transferer. If the transfer fails the whole operation fails, and
the host is expected to discard every write done by it.
*/
package ledger
