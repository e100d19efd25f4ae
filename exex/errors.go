// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package exex

import (
	"errors"
)

var (
	// ErrDuplicateIdentity is returned when registering an extension
	// whose name is already registered.
	ErrDuplicateIdentity = errors.New("extension identity already registered")
	// ErrRegistrationWindowClosed is returned when registering or
	// deregistering an extension after the manager has started.
	ErrRegistrationWindowClosed = errors.New("registration window is closed")
	// ErrNonMonotonicAcknowledgement is returned when an extension
	// acknowledges a height lower than its previous acknowledgement.
	ErrNonMonotonicAcknowledgement = errors.New("non monotonic acknowledgement")
	// ErrNilNotificationSource is returned when starting a manager
	// without a notification source.
	ErrNilNotificationSource = errors.New("notification source is nil")
	// ErrManagerStopped is returned when interacting with a manager
	// which is shutting down or stopped.
	ErrManagerStopped = errors.New("extension manager is stopped")
	// ErrManagerAlreadyStarted is returned when starting a manager
	// a second time.
	ErrManagerAlreadyStarted = errors.New("extension manager already started")
	// ErrUnknownIdentity is returned when querying an extension
	// identity which is not registered.
	ErrUnknownIdentity = errors.New("extension identity is not registered")
	// ErrSubscriptionLimit is returned when no more finished height
	// subscriptions can be added.
	ErrSubscriptionLimit = errors.New("subscription limit reached")
)
