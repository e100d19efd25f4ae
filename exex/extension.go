// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package exex

import (
	"github.com/ChainSafe/exexd/lib/chain"
)

// ExtensionFunc is the entry point of an execution extension. It runs as
// an independently scheduled task owned by the manager, consumes the
// notification stream of its Context and reports processed heights back
// through it. Returning nil removes the extension from the manager;
// returning an error halts the whole manager.
type ExtensionFunc func(ctx *Context) error

// extension is the manager's record of one registered extension.
// The status and acknowledgement fields are guarded by the manager
// mutex; each has a single writing goroutine.
type extension struct {
	name     string
	fn       ExtensionFunc
	capacity uint

	// notifications is written to by the dispatcher only and
	// closed by the manager once the dispatcher has returned.
	notifications chan chain.Notification
	// finished carries acknowledged heights from the extension
	// task to its acknowledgement forwarder.
	finished chan chain.Height
	// quit is closed when the extension task exits, unblocking
	// any send suspended on its full notification channel.
	quit chan struct{}

	// written by the supervisor, except for the Errored transition
	// on a protocol violation which is written by the aggregator.
	status Status

	// written by the aggregator only.
	lastAcked chain.Height
	hasAcked  bool
}

func newExtension(name string, fn ExtensionFunc, capacity uint) *extension {
	return &extension{
		name:          name,
		fn:            fn,
		capacity:      capacity,
		notifications: make(chan chain.Notification, capacity),
		finished:      make(chan chain.Height, capacity),
		quit:          make(chan struct{}),
		status:        Registering,
	}
}
