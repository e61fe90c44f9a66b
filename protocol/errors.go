package protocol

import "github.com/pkg/errors"

var (
	ErrEmptyFrame       = errors.New("empty frame")
	ErrUnknownEvent     = errors.New("unknown event")
	ErrUnknownCodec     = errors.New("unknown codec")
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidMessage   = errors.New("invalid chat message")
)
