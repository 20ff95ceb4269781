/*
Package ddb stores edit locks in a DynamoDB single table.

Lock items are keyed with macro-expanded templates registered in the index map
registry:

	{"PK": "LOCK#{Model}", "SK": "ENTITY#{EntityID}"}

Acquire, extend and release are single conditional writes. On a failed
condition the store asks DynamoDB for the old item and uses it to tell a
conflicting, mismatched or missing lock apart. PurgeAt is written in epoch
seconds; enable the table TTL on that attribute to let DynamoDB remove old
records.

The integration test runs against a real table when built with the
integration tag and configured through .env.
*/
package ddb
