package applicants

import "errors"

var (
	ErrNotFound     = errors.New("applicant not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrTableMissing means the applicants table has not been created.
	ErrTableMissing = errors.New("applicants table missing")
)
