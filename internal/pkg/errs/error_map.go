/*
Package errs provides the client-side failure taxonomy and error code constants.

This file defines the map from error codes to ClientError templates, used to
standardize error construction in the client and HTTP responses in the
development gateway.
*/
package errs

import "net/http"

// errorMap stores the ClientError template for every error code.
var errorMap = map[int]ClientError{
	// 1xxx: Local Validation Errors
	ErrPasswordTooShort:   {Code: ErrPasswordTooShort, Kind: KindValidation, Message: "Password must be at least %d characters."},
	ErrPasswordMismatch:   {Code: ErrPasswordMismatch, Kind: KindValidation, Message: "Passwords do not match."},
	ErrMissingCredentials: {Code: ErrMissingCredentials, Kind: KindValidation, Message: "Email and password are required."},
	ErrInvalidParams:      {Code: ErrInvalidParams, Kind: KindValidation, Message: "Invalid request parameters.", Status: http.StatusBadRequest},

	// 2xxx: Authentication and Session Errors
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Kind: KindAuth, Message: "Sign-in failed. Please check your details and try again.", Status: http.StatusUnauthorized},
	ErrTokenRejected:      {Code: ErrTokenRejected, Kind: KindAuth, Message: "Your session has expired. Please sign in again.", Status: http.StatusUnauthorized},
	ErrAuthInFlight:       {Code: ErrAuthInFlight, Kind: KindAuthBusy, Message: "Another sign-in attempt is already in progress."},
	ErrPartialRegistration: {
		Code: ErrPartialRegistration, Kind: KindPartialRegistration,
		Message: "Your account was created, but signing in failed. Please sign in manually.",
	},
	ErrUserAlreadyExists: {Code: ErrUserAlreadyExists, Kind: KindAuth, Message: "An account with this email already exists.", Status: http.StatusConflict},
	ErrUnauthorized:      {Code: ErrUnauthorized, Kind: KindAuth, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},

	// 3xxx: Network Errors
	ErrGatewayUnreachable: {Code: ErrGatewayUnreachable, Kind: KindNetwork, Message: "Could not reach the server. Please try again."},
	ErrGatewayResponse:    {Code: ErrGatewayResponse, Kind: KindNetwork, Message: "The server returned an unexpected response."},

	// 4xxx: Realtime Channel Errors
	ErrChannelNotOpen:  {Code: ErrChannelNotOpen, Kind: KindChannel, Message: "Guild chat is not connected."},
	ErrChannelDial:     {Code: ErrChannelDial, Kind: KindChannel, Message: "Could not connect to guild chat."},
	ErrChannelClosed:   {Code: ErrChannelClosed, Kind: KindChannel, Message: "Guild chat connection was closed."},
	ErrSendRateLimited: {Code: ErrSendRateLimited, Kind: KindChannel, Message: "You are sending messages too quickly."},

	// 5xxx: Gateway Business and Internal Errors
	ErrQuestNotFound:     {Code: ErrQuestNotFound, Kind: KindUnknown, Message: "Quest not found.", Status: http.StatusNotFound},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Kind: KindNetwork, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrUnknown:           {Code: ErrUnknown, Kind: KindUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
