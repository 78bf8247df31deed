package config

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
)

// Error is a configuration error detected while loading or resolving a
// policy. Pos is set for errors that originate in a CUE document.
type Error struct {
	Code    ErrorCode
	Field   string
	Message string
	Pos     token.Pos
}

// ErrorCode categorizes configuration errors.
type ErrorCode string

const (
	// ErrCodeUnknownTheory indicates a rule names a theory that is not registered.
	ErrCodeUnknownTheory ErrorCode = "UNKNOWN_THEORY"

	// ErrCodeIndexOutOfRange indicates an index-based rule is outside the registration list.
	ErrCodeIndexOutOfRange ErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeSelfPair indicates a rule whose exporter and importer coincide.
	ErrCodeSelfPair ErrorCode = "SELF_PAIR"

	// ErrCodeTooManyTheories indicates more theories than an ownership mask holds.
	ErrCodeTooManyTheories ErrorCode = "TOO_MANY_THEORIES"

	// ErrCodeDuplicateTheory indicates two registered theories share a name.
	ErrCodeDuplicateTheory ErrorCode = "DUPLICATE_THEORY"

	// ErrCodeInvalidValue indicates a malformed or out-of-range field.
	ErrCodeInvalidValue ErrorCode = "INVALID_VALUE"
)

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Code, e.Field, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func hasCode(err error, code ErrorCode) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsUnknownTheory reports whether err is an UNKNOWN_THEORY error.
func IsUnknownTheory(err error) bool { return hasCode(err, ErrCodeUnknownTheory) }

// IsIndexOutOfRange reports whether err is an INDEX_OUT_OF_RANGE error.
func IsIndexOutOfRange(err error) bool { return hasCode(err, ErrCodeIndexOutOfRange) }

// IsSelfPair reports whether err is a SELF_PAIR error.
func IsSelfPair(err error) bool { return hasCode(err, ErrCodeSelfPair) }

// IsTooManyTheories reports whether err is a TOO_MANY_THEORIES error.
func IsTooManyTheories(err error) bool { return hasCode(err, ErrCodeTooManyTheories) }

// IsInvalidValue reports whether err is an INVALID_VALUE error.
func IsInvalidValue(err error) bool { return hasCode(err, ErrCodeInvalidValue) }

func ruleField(i int) string {
	return fmt.Sprintf("sharing.rules[%d]", i)
}
