// Package messaging provides the request/response exchange steps use to talk to
// remote provisioning services.
//
// A Pool hands out exclusive Producers for exactly one exchange at a time.
// Pool.Query borrows a producer, bounds the exchange by a timeout, checks the
// number of results against an expected Cardinality and always releases the
// producer, on the error path included. The result is a QueryResult tagged
// OK, WrongCardinality or TransportError.
//
// There is no automatic retry; retry policy belongs to the caller.
package messaging
