// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package exex

import (
	"context"
	"errors"
	"fmt"

	"github.com/ChainSafe/exexd/telemetry"
)

// supervise runs one extension task and observes its termination.
// Normal completion removes the extension from the manager; abnormal
// termination halts the whole manager with the failing extension's
// identity and the notification in flight at the time.
func (m *Manager) supervise(ext *extension) {
	defer m.wg.Done()

	err := m.runExtension(ext)

	// an extension returning because the manager is shutting down
	// is a normal completion, not a fault.
	if err != nil && (errors.Is(err, ErrManagerStopped) ||
		errors.Is(err, context.Canceled)) {
		err = nil
	}

	close(ext.quit)

	if err == nil {
		m.mutex.Lock()
		if !ext.status.terminal() {
			ext.status = Removed
		}
		terminalStatus := ext.status
		m.mutex.Unlock()

		logger.Infof("extension %s completed", ext.name)
		m.telemetry.SendMessage(telemetry.NewExtensionStoppedTM(
			ext.name, terminalStatus.String(), ""))

		// the aggregator recomputes the finished height without
		// the removed extension.
		select {
		case m.finishedEvents <- finishedHeightEvent{ext: ext, removed: true}:
		case <-m.ctx.Done():
		}
		return
	}

	m.mutex.Lock()
	ext.status = Errored
	m.mutex.Unlock()

	m.telemetry.SendMessage(telemetry.NewExtensionStoppedTM(
		ext.name, Errored.String(), err.Error()))
	m.fail(fmt.Errorf("extension %s failed: %w (notification in flight: %s)",
		ext.name, err, m.inFlightString()))
}

// runExtension calls the extension function, converting panics
// into errors so a faulty extension cannot crash the node without
// going through the manager's fault path.
func (m *Manager) runExtension(ext *extension) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extension panicked: %v", r)
		}
	}()

	return ext.fn(&Context{
		ctx: m.ctx,
		ext: ext,
	})
}

// forwardAcknowledgements forwards acknowledged heights from one
// extension's channel to the aggregator, preserving their order.
func (m *Manager) forwardAcknowledgements(ext *extension) {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case height := <-ext.finished:
			select {
			case m.finishedEvents <- finishedHeightEvent{ext: ext, height: height}:
			case <-m.ctx.Done():
				return
			}
		}
	}
}
