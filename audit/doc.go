// Package audit records every inbound HTTP request and outbound response to
// append-only storage.
//
// Interceptor is plain net/http middleware. For each exchange it appends a
// request record before forwarding and a response record after the
// downstream handler returns or panics. The response is buffered so the
// exact bytes can be both recorded and delivered to the client.
//
// Stores:
//   - FileStore writes one "<timestamp> [LEVEL] <json>" line per record.
//   - SQLStore keeps records in an audit_records table through bun.
//   - BadgerStore keeps records under time ordered audit/ keys.
//
// Persistence failures are logged and counted but never fail the exchange.
// Headers are recorded verbatim unless WithRedactedHeaders is set.
package audit
