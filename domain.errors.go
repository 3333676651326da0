package main

import (
	"errors"
	"fmt"
)

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrInvalidBookID = errors.New("book id provided is not valid")
	ErrDuplicateBook = errors.New("book id already exists")
)

// ValidationError reports the first rule a book payload violates.
type ValidationError struct {
	Field   string
	Message string
}

func (v *ValidationError) Error() string {
	return v.Message
}

// StoreError wraps any failure returned by the underlying store.
type StoreError struct {
	Op  string
	Err error
}

func (s *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", s.Op, s.Err)
}

func (s *StoreError) Unwrap() error {
	return s.Err
}

func newStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
