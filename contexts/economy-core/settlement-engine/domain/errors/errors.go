package errors

import "errors"

var (
	ErrGameNotFound       = errors.New("prediction game not found")
	ErrGameNotEnded       = errors.New("prediction game has not ended")
	ErrAlreadySettled     = errors.New("prediction game is already settled")
	ErrUnauthorized       = errors.New("caller may not settle this game")
	ErrInvalidInput       = errors.New("settlement input is invalid")
	ErrSettlementNotFound = errors.New("settlement batch not found")
)
