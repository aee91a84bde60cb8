package userrepo

import "errors"

var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrSubjectAlreadyBound indicates another user already exists for the provided subject.
	ErrSubjectAlreadyBound = errors.New("user subject already bound")
)
