/*
Package errs defines the relay's application error codes and the CustomError
type that carries them to HTTP responses and WebSocket notices.
*/
package errs

// 1xxx: request handling.
const (
	// ErrInvalidParams indicates that request parameters failed validation.
	ErrInvalidParams = 1001

	// ErrInvalidJSONFormat indicates a frame or body that is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrRateLimitExceeded indicates too many handshake attempts from one address.
	ErrRateLimitExceeded = 1007
)

// 2xxx: admission. These are fatal to the connection attempt.
const (
	// ErrIncompleteProfile indicates a handshake missing nickname, sex or room.
	ErrIncompleteProfile = 2001

	// ErrNicknameTaken indicates the nickname belongs to another live connection.
	ErrNicknameTaken = 2002

	// ErrAlreadyAdmitted indicates a second admission for the same connection.
	ErrAlreadyAdmitted = 2003
)

// 21xx: routing. These never close the connection.
const (
	// ErrRecipientNotFound indicates a private message to a nickname nobody holds.
	ErrRecipientNotFound = 2101

	// ErrMalformedMessage indicates a room message without a room, a private
	// message without a body, or a message from an unregistered sender.
	ErrMalformedMessage = 2102

	// ErrMessageRateExceeded indicates a client sending faster than its limiter allows.
	ErrMessageRateExceeded = 2103
)

// 5xxx: internal.
const (
	// ErrUnknown is the catch-all server error.
	ErrUnknown = 5000

	// ErrShuttingDown indicates the relay stopped accepting connections. It is
	// sent as a WebSocket rejection reason, never as an HTTP response.
	ErrShuttingDown = 5001
)
