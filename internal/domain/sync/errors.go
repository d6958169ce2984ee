package sync

import "errors"

// Error taxonomy for remote fetches. Transport failures are retried up to a
// bound and then surfaced; application-level rejections are never retried.
var (
	// ErrRemoteUnavailable indicates a transport failure (timeout,
	// connection reset) talking to the remote API
	ErrRemoteUnavailable = errors.New("remote platform unavailable")

	// ErrRemoteRejected indicates the remote API answered but refused the
	// request (HTTP error status or success=false envelope)
	ErrRemoteRejected = errors.New("remote platform rejected request")

	// ErrInvalidResponse indicates a malformed payload from the remote API
	ErrInvalidResponse = errors.New("invalid response from remote platform")
)
