package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a requested entity has no live row
var ErrNotFound = errors.New("not found")

// CustomError is an error carrying the HTTP status it should surface with
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// ValidationError rejects an input before anything is written
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// RenderError is a generated attribute template that failed for one note
type RenderError struct {
	NoteID string
	Key    string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("render note %s: %v", e.NoteID, e.Err)
	}
	return fmt.Sprintf("render note %s key %q: %v", e.NoteID, e.Key, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// MarshalJSON reports the cause as text
func (e *RenderError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		NoteID string `json:"noteId"`
		Key    string `json:"key,omitempty"`
		Error  string `json:"error"`
	}{e.NoteID, e.Key, msg})
}

// StoreError means the storage engine failed to open, read or write
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// StoreErr wraps err as a StoreError unless it already is one, or is nil
func StoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IntegrityViolation counts rows a sweep rule marked deleted
type IntegrityViolation struct {
	Entity string `json:"entity"`
	Rule   string `json:"rule"`
	Count  int64  `json:"count"`
}
