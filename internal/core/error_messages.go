// Package core provides the normalization, loading, filtering and
// aggregation logic for the locality dataset.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. API clients receive the code alongside the message; the
// technical error is only logged.
//
// # Source Errors (SRC001-SRC099)
//
// Errors raised while reading the configured dataset source:
//
//	SRC001 - Source unavailable: The dataset source could not be read
//	         Action: Check the dataset URI and that the source is reachable
//	         Patterns: "source unavailable"
//
//	SRC002 - Unsupported source: The dataset format is not recognized
//	         Action: Use a .csv, .json, .xlsx, sqlite://, mysql:// or postgres:// source
//	         Patterns: "unsupported source"
//
//	SRC003 - Fetch failed: The remote dataset returned an error status
//	         Action: Verify the dataset URL responds with 200 OK
//	         Patterns: "unexpected status"
//
//	SRC004 - Malformed source: Rows could not be decoded
//	         Action: Check that the file is well-formed and has a header row
//	         Patterns: "decode rows"
//
// # Dataset Errors (DAT001-DAT099)
//
//	DAT001 - Locality not found: No locality has the requested code
//	         Action: Pick a locality from the jurisdiction list
//	         Patterns: "locality not found"
//
//	DAT002 - Not loaded: The dataset has not been loaded yet
//	         Action: Please try again in a few moments
//	         Patterns: "dataset not loaded"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Invalid parameter: A query parameter has an invalid value
//	         Action: Check the parameter names and formats
//	         Patterns: "invalid parameter"
//
//	REQ002 - Invalid range: A range minimum is greater than its maximum
//	         Action: Swap or adjust the range bounds
//	         Patterns: "invalid range"
//
//	REQ003 - Missing parameter: A required query parameter is missing
//	         Action: Provide every required parameter
//	         Patterns: "missing parameter"
//
//	REQ004 - Request cancelled: The request was cancelled or timed out
//	         Action: Please try again
//	         Patterns: "context canceled", "context deadline exceeded"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
//	RATE002 - Reload busy: Another reload is still running
//	          Action: Wait for the running reload to finish
//	          Patterns: "reload already in progress"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Patterns are matched case-insensitively using strings.Contains and the
// first match wins. Wrapped source errors contain both the specific cause
// and "source unavailable", so SRC002-SRC004 are listed before SRC001.
package core

import (
	"errors"
	"strings"
)

// Dataset lookup errors.
var (
	ErrLocalityNotFound = errors.New("locality not found")
	ErrNotLoaded        = errors.New("dataset not loaded")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. Order matters: specific patterns come before general ones.
var errorPatterns = []errorPattern{
	// Source errors
	{
		pattern: "unsupported source",
		msg: UserMessage{
			Message: "The dataset format is not recognized",
			Action:  "Use a .csv, .json, .xlsx, sqlite://, mysql:// or postgres:// source",
			Code:    "SRC002",
		},
	},
	{
		pattern: "unexpected status",
		msg: UserMessage{
			Message: "The remote dataset returned an error status",
			Action:  "Verify the dataset URL responds with 200 OK",
			Code:    "SRC003",
		},
	},
	{
		pattern: "decode rows",
		msg: UserMessage{
			Message: "Dataset rows could not be decoded",
			Action:  "Check that the file is well-formed and has a header row",
			Code:    "SRC004",
		},
	},
	{
		pattern: "source unavailable",
		msg: UserMessage{
			Message: "The dataset source could not be read",
			Action:  "Check the dataset URI and that the source is reachable",
			Code:    "SRC001",
		},
	},

	// Dataset errors
	{
		pattern: "locality not found",
		msg: UserMessage{
			Message: "No locality has the requested code",
			Action:  "Pick a locality from the jurisdiction list",
			Code:    "DAT001",
		},
	},
	{
		pattern: "dataset not loaded",
		msg: UserMessage{
			Message: "The dataset has not been loaded yet",
			Action:  "Please try again in a few moments",
			Code:    "DAT002",
		},
	},

	// Request errors
	{
		pattern: "invalid parameter",
		msg: UserMessage{
			Message: "A query parameter has an invalid value",
			Action:  "Check the parameter names and formats",
			Code:    "REQ001",
		},
	},
	{
		pattern: "invalid range",
		msg: UserMessage{
			Message: "A range minimum is greater than its maximum",
			Action:  "Swap or adjust the range bounds",
			Code:    "REQ002",
		},
	},
	{
		pattern: "missing parameter",
		msg: UserMessage{
			Message: "A required query parameter is missing",
			Action:  "Provide every required parameter",
			Code:    "REQ003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again",
			Code:    "REQ004",
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
	{
		pattern: "reload already in progress",
		msg: UserMessage{
			Message: "Another reload is still running",
			Action:  "Wait for the running reload to finish",
			Code:    "RATE002",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}
