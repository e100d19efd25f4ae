// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package exex

// Status is the lifecycle status of a registered extension.
type Status uint8

const (
	// Registering means the extension is registered but the
	// manager has not started dispatching yet.
	Registering Status = iota
	// Active means the extension is receiving notifications.
	Active
	// Errored means the extension task failed or violated the
	// acknowledgement protocol.
	Errored
	// ShuttingDown means the manager is stopping and the extension
	// is draining its remaining notifications.
	ShuttingDown
	// Removed means the extension task completed and the extension
	// no longer takes part in dispatch or the finished height.
	Removed
)

func (s Status) String() string {
	switch s {
	case Registering:
		return "registering"
	case Active:
		return "active"
	case Errored:
		return "errored"
	case ShuttingDown:
		return "shutting down"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// terminal statuses are never overwritten by later transitions.
func (s Status) terminal() bool {
	return s == Errored || s == Removed
}
