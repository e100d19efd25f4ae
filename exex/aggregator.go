// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package exex

import (
	"fmt"

	"github.com/ChainSafe/exexd/lib/chain"
	"github.com/ChainSafe/exexd/telemetry"
	"github.com/google/uuid"
)

// finishedHeightEvent is one acknowledgement from an extension, or
// its removal from the finished height computation.
type finishedHeightEvent struct {
	ext     *extension
	height  chain.Height
	removed bool
}

// aggregate consumes acknowledgement events, updates per-extension
// watermarks and recomputes the global minimum finished height.
// It is the only writer of acknowledgement heights and of the
// global finished height.
func (m *Manager) aggregate() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case event := <-m.finishedEvents:
			err := m.processFinishedEvent(event)
			if err != nil {
				m.fail(err)
				return
			}
		}
	}
}

func (m *Manager) processFinishedEvent(event finishedHeightEvent) (err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	ext := event.ext

	if !event.removed {
		if ext.hasAcked && event.height < ext.lastAcked {
			ext.status = Errored
			// the mutex is held, so read the in-flight
			// notification directly.
			inFlight := "none"
			if m.inFlight != nil {
				inFlight = m.inFlight.String()
			}
			return fmt.Errorf(
				"%w: extension %s acknowledged height %d after height %d "+
					"(notification in flight: %s)",
				ErrNonMonotonicAcknowledgement, ext.name,
				event.height, ext.lastAcked, inFlight)
		}

		ext.lastAcked = event.height
		ext.hasAcked = true
		acknowledgementsCounter.WithLabelValues(ext.name).Inc()
		logger.Tracef("extension %s acknowledged height %d", ext.name, event.height)
	}

	m.recomputeFinishedHeight()
	return nil
}

// recomputeFinishedHeight recomputes the global minimum acknowledged
// height over all active extensions. An extension which has never
// acknowledged holds the minimum unbounded below, so no finished
// height is published until every active extension has acknowledged
// at least once. The manager mutex must be locked.
func (m *Manager) recomputeFinishedHeight() {
	var minimum chain.Height
	minimumSet := false

	for _, ext := range m.order {
		if ext.status != Active {
			continue
		}

		if !ext.hasAcked {
			return
		}

		if !minimumSet || ext.lastAcked < minimum {
			minimum = ext.lastAcked
			minimumSet = true
		}
	}

	if !minimumSet {
		return
	}

	if m.hasFinishedHeight && minimum <= m.finishedHeight {
		return
	}

	m.finishedHeight = minimum
	m.hasFinishedHeight = true
	finishedHeightGauge.Set(float64(minimum))

	for _, ext := range m.order {
		if ext.status != Active || !ext.hasAcked {
			continue
		}
		heightLagGauge.WithLabelValues(ext.name).
			Set(float64(minimum) - float64(ext.lastAcked))
	}

	logger.Debugf("finished height is now %d", minimum)
	m.telemetry.SendMessage(telemetry.NewFinishedHeightTM(fmt.Sprint(minimum)))

	for _, subscription := range m.subscriptions {
		select {
		case subscription <- minimum:
		default:
		}
	}
}

// FinishedHeight returns the current global minimum acknowledged
// height over all active extensions, or false while any active
// extension has never acknowledged a height (or none is registered).
// The pruning collaborator must treat any height at or above the
// returned value as possibly still needed by some extension.
func (m *Manager) FinishedHeight() (height chain.Height, ok bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.finishedHeight, m.hasFinishedHeight
}

// SubscribeFinishedHeight registers a channel notified whenever the
// global minimum finished height increases. The channel has a buffer
// of one and stale values are not replaced, so subscribers should
// read the authoritative value with FinishedHeight.
func (m *Manager) SubscribeFinishedHeight() (id uint32,
	ch <-chan chain.Height, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if len(m.subscriptions) == maxSubscriptions {
		return 0, nil, ErrSubscriptionLimit
	}

	subscription := make(chan chain.Height, 1)
	if m.hasFinishedHeight {
		subscription <- m.finishedHeight
	}

	id = m.generateSubscriptionID()
	m.subscriptions[id] = subscription
	return id, subscription, nil
}

// UnsubscribeFinishedHeight removes and closes the subscription
// channel with the id given. It returns false if the id is unknown.
func (m *Manager) UnsubscribeFinishedHeight(id uint32) (ok bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	subscription, exists := m.subscriptions[id]
	if !exists {
		return false
	}
	close(subscription)
	delete(m.subscriptions, id)
	return true
}

func (m *Manager) generateSubscriptionID() uint32 {
	var uid uuid.UUID
	for {
		uid = uuid.New()
		if _, taken := m.subscriptions[uid.ID()]; !taken {
			break
		}
	}
	return uid.ID()
}
