// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package exex

import (
	"sync"
	"testing"
	"time"

	"github.com/ChainSafe/exexd/internal/log"
	"github.com/ChainSafe/exexd/lib/chain"
	"github.com/stretchr/testify/require"
)

var testTimeout = time.Second * 3

const testChain chain.ID = "test"

func committed(t *testing.T, start, end chain.Height) chain.Notification {
	t.Helper()
	r, err := chain.NewRange(testChain, start, end)
	require.NoError(t, err)
	return chain.Committed{Committed: r}
}

func newTestManager(source <-chan chain.Notification) *Manager {
	return NewManager(Config{
		Source:   source,
		LogLevel: log.Error,
	})
}

// recorder collects the notifications observed by one extension.
type recorder struct {
	mutex    sync.Mutex
	observed []chain.Notification
}

func (r *recorder) record(notification chain.Notification) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.observed = append(r.observed, notification)
}

func (r *recorder) notifications() []chain.Notification {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	observed := make([]chain.Notification, len(r.observed))
	copy(observed, r.observed)
	return observed
}

// recordingExtension drains its notification stream into the recorder,
// sleeping delay between notifications, and returns on end of stream.
func recordingExtension(r *recorder, delay time.Duration) ExtensionFunc {
	return func(ctx *Context) error {
		for notification := range ctx.Notifications() {
			if delay > 0 {
				time.Sleep(delay)
			}
			r.record(notification)
		}
		return nil
	}
}

// ackDrivenExtension acknowledges the heights received on acks,
// draining its notification stream on the side. It returns once
// acks is closed or the manager shuts down.
func ackDrivenExtension(acks <-chan chain.Height) ExtensionFunc {
	return func(ctx *Context) error {
		notifications := ctx.Notifications()
		for {
			select {
			case _, ok := <-notifications:
				if !ok {
					notifications = nil
				}
			case height, ok := <-acks:
				if !ok {
					return nil
				}
				err := ctx.AcknowledgeHeight(height)
				if err != nil {
					return err
				}
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func waitForManager(t *testing.T, manager *Manager) {
	t.Helper()
	select {
	case <-manager.Done():
	case <-time.After(testTimeout):
		t.Fatal("extension manager did not shut down")
	}
}
