package holdem

import (
	"errors"
	"fmt"
)

var (
	// ErrStaleTimer is returned when a timer fires for a turn or hand that
	// has already moved on. Callers treat it as a no-op.
	ErrStaleTimer = errors.New("stale timer")
	ErrHandOver   = errors.New("hand already ended")
)

// ValidationError is an illegal action or request. It is reported to the
// requester only and never changes state.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError is returned when a table or player does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found: %s", e.Kind, e.ID) }

func ErrPlayerNotFound(id string) error { return &NotFoundError{Kind: "player", ID: id} }

// InternalError wraps a failure of a collaborator (persistence, balance
// store, evaluator) during a transition.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string { return "internal error: " + e.Op + ": " + e.Err.Error() }

func (e *InternalError) Unwrap() error { return e.Err }

func Internal(op string, err error) error { return &InternalError{Op: op, Err: err} }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsInternal(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}

// Rejection messages shared with clients.
const (
	msgNotInProgress   = "Table or Game not in progress"
	msgNotYourTurn     = "Not your turn"
	msgCannotCheck     = "Cannot check, must call or raise"
	msgCannotCall      = "Insufficient chips to call"
	msgRaiseTooSmall   = "Invalid raise amount: Must be greater than current bet"
	msgCannotRaise     = "Insufficient chips to raise"
	msgNoChipsAllin    = "No chips to go all-in"
	msgMustBeSeated    = "You must be seated to add chips"
	msgAddDuringHand   = "Cannot add chips during an active hand"
	msgTableFull       = "Table is full"
	msgSeatTaken       = "Seat is already taken"
	msgInvalidSeat     = "Invalid seat"
	msgAlreadySeated   = "Already seated"
	msgNotAtTable      = "Player has not joined this table"
	msgInvalidAmount   = "Amount must be positive"
	msgBelowMinimumBet = "Bet must be at least the minimum bet of %d"
	msgHandInProgress  = "Hand already in progress"
	msgNotSeated       = "You are not seated at this table"
	msgNotEnough       = "Not enough players with chips"
)
