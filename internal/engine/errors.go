package engine

import (
	"errors"
	"fmt"
)

// Reason says what an Apply did or why it did nothing.
type Reason string

const (
	ReasonInserted Reason = "inserted"
	ReasonUpdated  Reason = "updated"
	ReasonDeleted  Reason = "deleted"

	// ReasonEmptyValue rejects an insert whose value is "".
	ReasonEmptyValue Reason = "empty_value"

	// ReasonInvalidAction rejects a malformed payload (unknown kind, logical
	// operator, missing field or operator, nil action).
	ReasonInvalidAction Reason = "invalid_action"

	// ReasonUnknownField rejects a field missing from the collection templates.
	ReasonUnknownField Reason = "unknown_field"

	// ReasonIllegalOperator rejects an operator the field template does not allow.
	ReasonIllegalOperator Reason = "illegal_operator"

	// ReasonInvalidValue rejects a value that does not match the field kind,
	// or a sort value that is not a direction.
	ReasonInvalidValue Reason = "invalid_value"

	ReasonDuplicate       Reason = "duplicate"
	ReasonCapacity        Reason = "capacity"
	ReasonIndexOutOfRange Reason = "index_out_of_range"
)

// Changed reports whether the reason describes a mutation.
func (r Reason) Changed() bool {
	return r == ReasonInserted || r == ReasonUpdated || r == ReasonDeleted
}

// Outcome describes the result of one Try.
type Outcome struct {
	Reason  Reason
	Field   string
	Message string
}

// Changed reports whether the chains were modified.
func (o Outcome) Changed() bool {
	return o.Reason.Changed()
}

// Err returns nil for a mutation, otherwise a *RejectError.
func (o Outcome) Err() error {
	if o.Changed() {
		return nil
	}
	return &RejectError{Code: o.Reason, Message: o.Message, Field: o.Field}
}

// RejectError reports why an action left the chains unchanged.
type RejectError struct {
	// Code is the rejection reason.
	Code Reason

	// Message is a human-readable description.
	Message string

	// Field is the link field involved, when there is one.
	Field string
}

// Error implements the error interface.
func (e *RejectError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsRejected returns true if err is or wraps a RejectError.
func IsRejected(err error) bool {
	var re *RejectError
	return errors.As(err, &re)
}

// IsReason returns true if err is or wraps a RejectError with the given code.
func IsReason(err error, reason Reason) bool {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Code == reason
	}
	return false
}
