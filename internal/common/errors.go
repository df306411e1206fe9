// Package common defines shared constants and sentinel errors used across
// the server, the protocol client and the transfer layer. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrEdgeNotFound    = errors.New("follow edge not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Authorization errors.
	ErrNotFollowing = errors.New("not following")
	ErrNoGrant      = errors.New("no download permission")

	// Follow workflow errors.
	ErrPartialFollowBack = errors.New("follow back partially applied")

	// Protocol errors.
	ErrProtocolViolation = errors.New("protocol violation")
	ErrTransferFailed    = errors.New("transfer failed")

	// Handshake (sequencing) errors.
	ErrSequenceMismatch  = errors.New("sequence number mismatch")
	ErrClientMismatch    = errors.New("client id mismatch")
	ErrNoPendingDownload = errors.New("no pending download request")
	ErrTargetMismatch    = errors.New("file or source client mismatch")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
