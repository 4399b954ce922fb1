package msaccount

import (
	"github.com/iov-one/weave/errors"
)

var (
	// ErrOutOfOrder is returned when a proposal is resolved out of its
	// strict sequence order.
	ErrOutOfOrder = errors.Register(1100, "sequence out of order")

	// ErrInsufficientVotes is returned when a resolution is attempted
	// before threshold many same direction votes were collected.
	ErrInsufficientVotes = errors.Register(1101, "insufficient votes")

	// ErrPayloadMismatch is returned when the payload provided at
	// execution does not match the stored payload or hash commitment.
	ErrPayloadMismatch = errors.Register(1102, "payload mismatch")

	// ErrPayloadShape is returned when not exactly one of payload and
	// payload hash is provided.
	ErrPayloadShape = errors.Register(1103, "exactly one of payload and payload hash must be set")

	// ErrQueueFull is returned when an account reached its pending
	// proposal limit.
	ErrQueueFull = errors.Register(1104, "proposal queue is full")

	// ErrRevoked is returned when a transaction is signed with a key
	// whose standalone authority was revoked.
	ErrRevoked = errors.Register(1105, "signing key revoked")
)
