package domain

import "errors"

var (
	ErrRoundNotFound      = errors.New("daily round not found")
	ErrAlreadySubmitted   = errors.New("participant has already submitted")
	ErrInvalidParticipant = errors.New("invalid participant")
	ErrInvalidOption      = errors.New("invalid answer or guess option")
	ErrInvalidDate        = errors.New("invalid date, expected YYYY-MM-DD")
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrNoSubscription     = errors.New("no push subscription found")
	ErrEndpointGone       = errors.New("push endpoint permanently gone")
	ErrInternal           = errors.New("internal server error")
)
