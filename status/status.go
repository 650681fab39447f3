/*
DESCRIPTION
  status.go provides the error values shared by the decode buffer layer.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved. 

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package status provides the error values shared by the decode buffer layer.
// Errors returned by other packages wrap one of these; use errors.Cause to
// classify them.
package status

import "github.com/pkg/errors"

var (
	// ErrInvalidParameter is returned when caller supplied parameters are out
	// of range or inconsistent, including bitstream segments exceeding the
	// declared frame size.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNotEnoughSpace is returned when a fixed layout would be written past
	// its end.
	ErrNotEnoughSpace = errors.New("not enough space")

	// ErrNullDependency is returned when a required collaborator is missing.
	ErrNullDependency = errors.New("null dependency")

	// ErrLockFailed is returned when a resource could not be locked for CPU
	// access.
	ErrLockFailed = errors.New("could not lock resource")
)

// Is reports whether err was caused by target.
func Is(err, target error) bool {
	return errors.Cause(err) == target
}
