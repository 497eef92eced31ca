package driver

import "errors"

var (
	// ErrBadFrame is returned when a controller reply is not a valid frame.
	ErrBadFrame = errors.New("driver: malformed response frame")

	// ErrChecksum is returned when a reply frame's checksum does not match.
	ErrChecksum = errors.New("driver: checksum mismatch")

	// ErrShortResponse is returned when a Modbus read returns too few bytes.
	ErrShortResponse = errors.New("driver: short response")
)
