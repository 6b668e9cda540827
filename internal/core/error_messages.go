package core

// error_messages.go maps technical errors to user-friendly messages with
// codes for support reference. Users quote the code; support looks it up
// here.
//
// # Import Errors (IMP001-IMP099)
//
// Errors that reject a whole batch before any record is processed:
//
//	IMP001 - Invalid configuration: on_conflict or batch_size is not accepted
//	         Action: Use on_conflict "skip" or "update" and a batch_size of 1-1000
//	IMP002 - Unknown kind: the requested kind is not importable
//	         Action: GET /api/kinds lists the importable kinds
//	IMP003 - Too many records: the batch exceeds IMPORT_MAX_RECORDS
//	         Action: Split the batch into smaller chunks
//	IMP004 - System busy: all import slots are taken
//	         Action: Please wait a moment and try again
//	IMP005 - Batch not found: no batch with this id
//	         Action: Check the batch id returned by the import
//	IMP006 - Malformed request: the body is not a valid import request
//	         Action: Send {"config": {...}, "records": [...]}
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key
//	DB002 - Unique constraint
//	DB003 - Check constraint
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout
//	DB007 - Deadlock
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid date
//	VAL002 - Required field
//	VAL003 - Invalid enum
//	VAL004 - Malformed record
//
// # Rate Limiting (RATE001)
//
// # Default Error (ERR000)
//
// Sentinel errors are matched with errors.Is first. Everything else is
// matched case-insensitively by substring, first match wins, so specific
// patterns come before general ones.

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgInvalidConfig = UserMessage{
		Message: "Invalid import configuration",
		Action:  `Use on_conflict "skip" or "update" and a batch_size between 1 and 1000`,
		Code:    "IMP001",
	}
	msgUnknownKind = UserMessage{
		Message: "This kind cannot be imported",
		Action:  "GET /api/kinds lists the importable kinds",
		Code:    "IMP002",
	}
	msgTooManyRecords = UserMessage{
		Message: "The batch contains too many records",
		Action:  "Split the batch into smaller chunks",
		Code:    "IMP003",
	}
	msgTooManyImports = UserMessage{
		Message: "Too many imports in progress",
		Action:  "Please wait a moment and try again",
		Code:    "IMP004",
	}
	msgBatchNotFound = UserMessage{
		Message: "Import batch not found",
		Action:  "Check the batch id returned by the import",
		Code:    "IMP005",
	}
	msgMalformedRequest = UserMessage{
		Message: "The request body is not a valid import request",
		Action:  `Send a JSON object of the form {"config": {...}, "records": [...]}`,
		Code:    "IMP006",
	}
)

// ErrMalformedRequest marks a request body that could not be decoded.
var ErrMalformedRequest = errors.New("malformed import request")

var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrInvalidConfig, msgInvalidConfig},
	{ErrUnknownKind, msgUnknownKind},
	{ErrTooManyRecords, msgTooManyRecords},
	{ErrTooManyImports, msgTooManyImports},
	{ErrBatchNotFound, msgBatchNotFound},
	{ErrMalformedRequest, msgMalformedRequest},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Database constraint errors
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Enable skip_duplicates or remove the duplicate record",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your batch",
			Code:    "DB002",
		},
	},
	{
		pattern: "check constraint",
		msg: UserMessage{
			Message: "A value is outside the allowed range",
			Action:  "Review the record against the field rules for its kind",
			Code:    "DB003",
		},
	},

	// Database connection errors
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller batch or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// Validation errors
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date format detected",
			Action:  "Use YYYY-MM-DD dates",
			Code:    "VAL001",
		},
	},
	{
		pattern: "required field",
		msg: UserMessage{
			Message: "Required field is empty",
			Action:  "Ensure all required fields have values",
			Code:    "VAL002",
		},
	},
	{
		pattern: "must be one of",
		msg: UserMessage{
			Message: "Value is not in the allowed list",
			Action:  "Check the allowed values for this field",
			Code:    "VAL003",
		},
	},
	{
		pattern: "malformed record",
		msg: UserMessage{
			Message: "Record could not be read",
			Action:  "Each record must be a JSON object with the kind's fields",
			Code:    "VAL004",
		},
	},

	// Request cancellation
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller batch or check your connection",
			Code:    "REQ002",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000). Support staff
// should check application logs for the original technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-friendly message.
// The original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
