package errors

import "errors"

var (
	ErrConfigMissing    = errors.New("no active distribution config row")
	ErrInvalidTimezone  = errors.New("distribution config timezone is invalid")
	ErrInvalidConfig    = errors.New("distribution config rates are invalid")
	ErrInvalidInput     = errors.New("distribution input is invalid")
	ErrSnapshotNotFound = errors.New("daily snapshot not found")
)
