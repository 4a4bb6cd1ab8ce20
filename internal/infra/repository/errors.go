package repository

import "errors"

var (
	ErrInvalidRecord = errors.New("invalid record data")
	ErrCorruptRecord = errors.New("corrupt record data")
)
