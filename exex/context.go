// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package exex

import (
	"context"

	"github.com/ChainSafe/exexd/lib/chain"
)

// Context is the manager-facing handle given to an extension task.
// It carries the ordered notification stream for this extension and
// the acknowledgement path back into the manager.
type Context struct {
	ctx context.Context
	ext *extension
}

// Notifications returns the ordered stream of chain-state change
// notifications for this extension. The channel is closed when the
// manager shuts down; the extension should drain it and return.
func (c *Context) Notifications() <-chan chain.Notification {
	return c.ext.notifications
}

// AcknowledgeHeight reports that this extension has finished processing
// all notifications up to and including the given height. Heights must
// be non-decreasing; acknowledging a lower height than previously is a
// protocol violation which halts the manager.
// It returns ErrManagerStopped if the manager is shutting down.
func (c *Context) AcknowledgeHeight(height chain.Height) error {
	select {
	case c.ext.finished <- height:
		return nil
	case <-c.ctx.Done():
		return ErrManagerStopped
	}
}

// Done is closed when the manager is shutting down.
func (c *Context) Done() <-chan struct{} {
	return c.ctx.Done()
}
