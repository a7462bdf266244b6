package allowlist

import (
	"allowlist-bot/model"
	"errors"
	"fmt"
	"time"
)

// Code classifies a lifecycle failure.
type Code string

const (
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeDuplicatePending Code = "DUPLICATE_PENDING"
	CodeCooldownActive   Code = "COOLDOWN_ACTIVE"
	CodeNotFound         Code = "NOT_FOUND"
	CodeAlreadyDecided   Code = "ALREADY_DECIDED"
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
)

// Form fields a validation error can point at.
const (
	FieldHexID          = "hex_id"
	FieldRealName       = "real_name"
	FieldCharacterName  = "character_name"
	FieldAge            = "age"
	FieldAgeAttestation = "age_attestation"
	FieldBackstory      = "backstory"
	FieldOutcome        = "outcome"
	FieldReason         = "reason"
)

// Error is returned by every Tracker operation that fails.
type Error struct {
	Code    Code
	Message string
	// Field is set on validation errors.
	Field string
	// Remaining is set on cooldown errors.
	Remaining time.Duration
	// Status is set on already-decided errors.
	Status model.Status
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error carrying the same code, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrValidation       = &Error{Code: CodeValidation}
	ErrDuplicatePending = &Error{Code: CodeDuplicatePending}
	ErrCooldownActive   = &Error{Code: CodeCooldownActive}
	ErrNotFound         = &Error{Code: CodeNotFound}
	ErrAlreadyDecided   = &Error{Code: CodeAlreadyDecided}
	ErrStoreUnavailable = &Error{Code: CodeStoreUnavailable}
)

// CodeOf returns the code of err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func validationError(field, msg string) *Error {
	return &Error{Code: CodeValidation, Field: field, Message: msg}
}

func duplicatePendingError(applicationID int64) *Error {
	return &Error{Code: CodeDuplicatePending, Message: fmt.Sprintf("application #%d is still pending", applicationID)}
}

func cooldownError(remaining time.Duration) *Error {
	return &Error{Code: CodeCooldownActive, Message: fmt.Sprintf("cooldown active for another %s", remaining.Round(time.Second)), Remaining: remaining}
}

func notFoundError(id int64) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("application #%d not found", id)}
}

func alreadyDecidedError(id int64, status model.Status) *Error {
	return &Error{Code: CodeAlreadyDecided, Message: fmt.Sprintf("application #%d is already %s", id, status), Status: status}
}

func storeError(op string, cause error) *Error {
	return &Error{Code: CodeStoreUnavailable, Message: op, Cause: cause}
}
