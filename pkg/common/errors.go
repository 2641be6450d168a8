package common

import "errors"

var (
	ErrStudentNotFound     = errors.New("student not found")
	ErrInvalidRecord       = errors.New("invalid student record")
	ErrDuplicateEnrollment = errors.New("enrollment number already exists")
)
