package services

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("already exists")
)

func wrapInput(err error) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
}

func itoa(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}
