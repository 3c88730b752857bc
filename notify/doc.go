/*
Package notify publishes notifications of committed operations to an
external broker.

Every event becomes one Kafka record. The record key is the trust id for
trust notifications and the account for withdrawals, so all notifications
of a single trust land on the same partition in order.
*/
package notify
