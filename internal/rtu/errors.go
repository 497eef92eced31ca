package rtu

import "errors"

// Domain errors for the rtu package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, rtu.ErrInvalidTopology) {
//	    // refuse to start
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist in the RTU.
	ErrDeviceNotFound = errors.New("rtu: device not found")

	// ErrInvalidTopology is returned when a generated RTU fails validation.
	ErrInvalidTopology = errors.New("rtu: invalid topology")

	// ErrConfigNotFound is returned when the topology file does not exist.
	ErrConfigNotFound = errors.New("rtu: configuration file not found")

	// ErrUnknownController is returned for a controller kind the hub cannot drive.
	ErrUnknownController = errors.New("rtu: unknown controller")

	// ErrStateMismatch is returned when a device's state type does not match
	// what its controller accepts (for example a stepped state on a relay).
	ErrStateMismatch = errors.New("rtu: state type does not match controller")

	// ErrInvalidState is returned when a state value cannot be decoded.
	ErrInvalidState = errors.New("rtu: invalid state")
)
