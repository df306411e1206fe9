// Package client contains the client-side building blocks for socialnet.
//
// # Overview
//
// The package provides:
//  1. LineClient, a blocking client for the line protocol. It runs the
//     multi-line exchanges (notifications, profiles, uploads) and the
//     download handshake, receiving the chunked transfer with
//     transfer.Receiver.
//  2. GRPCClient, a client for the diagnostics endpoint that signs an
//     operator token from the shared secret and attaches it to every call.
//
// # Error Handling
//
// Transport failures come back as the underlying I/O error. Replies the
// caller did not expect are returned as *ReplyError carrying the server
// line. Diagnostics calls map gRPC status codes to ErrUnavailable and
// ErrUnauthorized.
//
// A LineClient is not safe for concurrent use; the protocol allows one
// command in flight per connection.
package client
