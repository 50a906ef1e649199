package service

import "errors"

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrEmptyInput      = errors.New("empty input")
	ErrBadPhone        = errors.New("invalid phone number")
	ErrQuantityInvalid = errors.New("quantity out of range")
	ErrNoActiveFlow    = errors.New("no active checkout flow")
)
