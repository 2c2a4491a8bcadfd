package database

import "errors"

var (
	// ErrDuplicateActiveRequest: the requester already has a pending or
	// approved request for the same calendar day.
	ErrDuplicateActiveRequest = errors.New("requester already has an active request for this day")

	// ErrSeatUnavailable: another pending or approved request already holds
	// this seat for the same day.
	ErrSeatUnavailable = errors.New("seat is already held for this day")

	// ErrNotPending: the operation requires the request to still be pending.
	ErrNotPending = errors.New("request is not pending")

	// ErrNotCurrentResponder: the acting user is not the request's current
	// assignee.
	ErrNotCurrentResponder = errors.New("not the current responder for this request")

	// ErrForbidden: the acting user may not perform this operation.
	ErrForbidden = errors.New("operation not permitted for this user")

	// ErrMissingReason: rejection and cancellation require a reason.
	ErrMissingReason = errors.New("reason is required")

	// ErrInvalidDecision: decision must be approved or rejected.
	ErrInvalidDecision = errors.New("unknown decision")

	ErrRequestNotFound = errors.New("request not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrStaleTransition: a conditional update matched no row because the
	// expected status/tier/assignee no longer holds. Timer handlers treat
	// this as "someone else acted first", not as a failure.
	ErrStaleTransition = errors.New("request state changed concurrently")
)
