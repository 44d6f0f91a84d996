/*
Package errs provides the client-side failure taxonomy and error code constants.

These codes identify specific failures both inside the client and in responses
from the development gateway.
*/
package errs

// 1xxx: Local Validation Errors
const (
	// ErrPasswordTooShort indicates the chosen password is below the minimum length.
	ErrPasswordTooShort = 1001

	// ErrPasswordMismatch indicates the password confirmation does not match.
	ErrPasswordMismatch = 1002

	// ErrMissingCredentials indicates an empty identifier or secret was submitted.
	ErrMissingCredentials = 1003

	// ErrInvalidParams indicates request parameter validation failed (gateway side).
	ErrInvalidParams = 1004
)

// 2xxx: Authentication and Session Errors
const (
	// ErrInvalidCredentials indicates the gateway rejected the identifier/secret pair.
	ErrInvalidCredentials = 2001

	// ErrTokenRejected indicates a restored or presented bearer token is invalid or expired.
	ErrTokenRejected = 2002

	// ErrAuthInFlight indicates an authentication attempt was started while another was running.
	ErrAuthInFlight = 2003

	// ErrPartialRegistration indicates the account was created server-side but the
	// automatic follow-up login failed.
	ErrPartialRegistration = 2004

	// ErrUserAlreadyExists indicates the email is already registered (gateway side).
	ErrUserAlreadyExists = 2005

	// ErrUnauthorized indicates a request without a valid bearer token (gateway side).
	ErrUnauthorized = 2006
)

// 3xxx: Network Errors
const (
	// ErrGatewayUnreachable indicates a transport-level failure reaching the gateway.
	ErrGatewayUnreachable = 3001

	// ErrGatewayResponse indicates the gateway answered with an unexpected status or body.
	ErrGatewayResponse = 3002
)

// 4xxx: Realtime Channel Errors
const (
	// ErrChannelNotOpen indicates a send was attempted while the channel is not open.
	ErrChannelNotOpen = 4001

	// ErrChannelDial indicates the streaming connection could not be established.
	ErrChannelDial = 4002

	// ErrChannelClosed indicates the connection was lost or closed by the remote end.
	ErrChannelClosed = 4003

	// ErrSendRateLimited indicates the outbound send exceeded the local rate limit.
	ErrSendRateLimited = 4004
)

// 5xxx: Gateway Business and Internal Errors
const (
	// ErrQuestNotFound indicates the quest id does not exist (gateway side).
	ErrQuestNotFound = 5101

	// ErrRateLimitExceeded indicates the request rate exceeded the gateway limit.
	ErrRateLimitExceeded = 5201

	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000
)
