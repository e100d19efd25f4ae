// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package exex

import (
	"github.com/ChainSafe/exexd/lib/chain"
)

// dispatch pulls each notification once from the source and pushes a
// copy into every active extension's channel, in registration order.
// A full channel suspends the fan-out until the extension drains a
// slot; this is the backpressure mechanism, propagating upstream to
// the notification source. Notifications are never dropped.
func (m *Manager) dispatch() {
	defer m.wg.Done()
	defer close(m.dispatcherDone)

	for {
		select {
		case <-m.ctx.Done():
			return
		case notification, ok := <-m.source:
			if !ok {
				logger.Info("notification source closed, shutting down")
				m.cancel()
				return
			}

			if !m.fanOut(notification) {
				return
			}
			notificationsTotal.Inc()
		}
	}
}

// fanOut delivers one notification to every active extension.
// It returns false if the manager shut down mid-dispatch.
func (m *Manager) fanOut(notification chain.Notification) (completed bool) {
	m.mutex.Lock()
	m.inFlight = notification
	extensions := make([]*extension, len(m.order))
	copy(extensions, m.order)
	m.mutex.Unlock()

	logger.Tracef("dispatching notification: %s", notification)

	for _, ext := range extensions {
		if m.extensionStatus(ext) != Active {
			continue
		}

		select {
		case ext.notifications <- notification:
			notificationsSentCounter.WithLabelValues(ext.name).Inc()
			channelOccupancyGauge.WithLabelValues(ext.name).
				Set(float64(len(ext.notifications)))
		case <-ext.quit:
			// the extension task exited mid-dispatch; it receives
			// no further notifications.
			continue
		case <-m.ctx.Done():
			return false
		}
	}

	return true
}

func (m *Manager) extensionStatus(ext *extension) Status {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return ext.status
}
