package errs

import "net/http"

// errorMap holds the message template and HTTP status for every code.
// Templates containing a verb are formatted with NewError's details.
// Codes that only reach WebSocket clients leave Status unset.
var errorMap = map[int]CustomError{
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrInvalidJSONFormat: {Code: ErrInvalidJSONFormat, Message: "Malformed JSON.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	ErrIncompleteProfile: {Code: ErrIncompleteProfile, Message: "Connection error: incomplete user information. Reload the page."},
	ErrNicknameTaken:     {Code: ErrNicknameTaken, Message: "The nickname '%s' is already in use."},
	ErrAlreadyAdmitted:   {Code: ErrAlreadyAdmitted, Message: "This connection is already registered."},

	ErrRecipientNotFound:   {Code: ErrRecipientNotFound, Message: "%s is not online"},
	ErrMalformedMessage:    {Code: ErrMalformedMessage, Message: "Malformed message."},
	ErrMessageRateExceeded: {Code: ErrMessageRateExceeded, Message: "You are sending messages too fast. Slow down."},

	ErrUnknown:      {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrShuttingDown: {Code: ErrShuttingDown, Message: "The server is restarting. Please reconnect shortly."},
}
