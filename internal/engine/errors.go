package engine

import "errors"

var (
	ErrInvalidPriceTick = errors.New("invalid price tick")
	ErrInvalidSeed      = errors.New("invalid seed order")
)
