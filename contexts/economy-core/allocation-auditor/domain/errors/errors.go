package errors

import "errors"

var (
	ErrInvalidInput = errors.New("allocation auditor input is invalid")
)
