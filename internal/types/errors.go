package types

import "fmt"

// EnvelopeError represents a persisted record that cannot be interpreted
type EnvelopeError struct {
	ID      string
	Message string
	Cause   error
}

func (e *EnvelopeError) Error() string {
	prefix := "envelope"
	if e.ID != "" {
		prefix = fmt.Sprintf("envelope %s", e.ID)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *EnvelopeError) Unwrap() error {
	return e.Cause
}

// IndexError represents a selection index outside its sequence
type IndexError struct {
	Field string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s %d out of range [0, %d)", e.Field, e.Index, e.Len)
}
