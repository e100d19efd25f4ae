// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package exex

import (
	"testing"
	"time"

	"github.com/ChainSafe/exexd/lib/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finishedHeightEquals(manager *Manager, expected chain.Height) func() bool {
	return func() bool {
		height, ok := manager.FinishedHeight()
		return ok && height == expected
	}
}

func Test_Manager_finishedHeight_unacknowledgedExtension(t *testing.T) {
	t.Parallel()

	source := make(chan chain.Notification, 3)
	manager := newTestManager(source)

	acks1 := make(chan chain.Height)
	acks2 := make(chan chain.Height)
	require.NoError(t, manager.Register("first", ackDrivenExtension(acks1),
		WithChannelCapacity(2)))
	require.NoError(t, manager.Register("second", ackDrivenExtension(acks2),
		WithChannelCapacity(2)))

	require.NoError(t, manager.Start())

	source <- committed(t, 1, 1)
	source <- committed(t, 2, 2)
	source <- committed(t, 3, 3)

	acks1 <- 1
	acks1 <- 2

	// the second extension never acknowledges, so it holds the
	// finished height unbounded below.
	assert.Never(t, func() bool {
		_, ok := manager.FinishedHeight()
		return ok
	}, 200*time.Millisecond, 10*time.Millisecond)

	close(acks1)
	close(acks2)
	close(source)
	waitForManager(t, manager)
	require.NoError(t, manager.Err())
}

func Test_Manager_finishedHeight_minimum(t *testing.T) {
	t.Parallel()

	source := make(chan chain.Notification, 3)
	manager := newTestManager(source)

	acks1 := make(chan chain.Height)
	acks2 := make(chan chain.Height)
	require.NoError(t, manager.Register("first", ackDrivenExtension(acks1),
		WithChannelCapacity(2)))
	require.NoError(t, manager.Register("second", ackDrivenExtension(acks2),
		WithChannelCapacity(2)))

	require.NoError(t, manager.Start())

	source <- committed(t, 1, 1)
	source <- committed(t, 2, 2)
	source <- committed(t, 3, 3)

	acks1 <- 1
	acks2 <- 1
	require.Eventually(t, finishedHeightEquals(manager, 1),
		testTimeout, time.Millisecond*5)

	// the first extension racing ahead does not move the minimum.
	acks1 <- 3
	assert.Never(t, func() bool {
		height, ok := manager.FinishedHeight()
		return ok && height > 1
	}, 200*time.Millisecond, 10*time.Millisecond)

	acks2 <- 3
	require.Eventually(t, finishedHeightEquals(manager, 3),
		testTimeout, time.Millisecond*5)

	close(acks1)
	close(acks2)
	close(source)
	waitForManager(t, manager)
	require.NoError(t, manager.Err())
}

func Test_Manager_finishedHeight_nonMonotonic(t *testing.T) {
	t.Parallel()

	source := make(chan chain.Notification, 1)
	manager := newTestManager(source)

	acks := make(chan chain.Height)
	require.NoError(t, manager.Register("rewinder", ackDrivenExtension(acks)))

	require.NoError(t, manager.Start())

	source <- committed(t, 1, 5)

	acks <- 5
	require.Eventually(t, finishedHeightEquals(manager, 5),
		testTimeout, time.Millisecond*5)

	// acknowledging a lower height is a protocol violation which
	// halts the whole manager.
	acks <- 3

	waitForManager(t, manager)
	err := manager.Err()
	require.ErrorIs(t, err, ErrNonMonotonicAcknowledgement)
	assert.Contains(t, err.Error(), "rewinder")
	assert.Contains(t, err.Error(), "notification in flight")

	status, err := manager.ExtensionStatus("rewinder")
	require.NoError(t, err)
	assert.Equal(t, Errored, status)
}

func Test_Manager_finishedHeight_removedExtensionExcluded(t *testing.T) {
	t.Parallel()

	source := make(chan chain.Notification)
	manager := newTestManager(source)

	acks := make(chan chain.Height)
	require.NoError(t, manager.Register("acking", ackDrivenExtension(acks)))
	// never acknowledges, completes straight away
	require.NoError(t, manager.Register("mute", func(ctx *Context) error {
		return nil
	}))

	require.NoError(t, manager.Start())

	acks <- 7

	// once the mute extension is removed it no longer holds the
	// finished height unbounded below.
	require.Eventually(t, finishedHeightEquals(manager, 7),
		testTimeout, time.Millisecond*5)

	close(acks)
	close(source)
	waitForManager(t, manager)
	require.NoError(t, manager.Err())
}

func Test_Manager_SubscribeFinishedHeight(t *testing.T) {
	t.Parallel()

	source := make(chan chain.Notification)
	manager := newTestManager(source)

	acks := make(chan chain.Height)
	require.NoError(t, manager.Register("acking", ackDrivenExtension(acks)))

	id, updates, err := manager.SubscribeFinishedHeight()
	require.NoError(t, err)

	require.NoError(t, manager.Start())

	acks <- 4

	select {
	case height := <-updates:
		assert.Equal(t, chain.Height(4), height)
	case <-time.After(testTimeout):
		t.Fatal("did not receive finished height update")
	}

	ok := manager.UnsubscribeFinishedHeight(id)
	assert.True(t, ok)
	ok = manager.UnsubscribeFinishedHeight(id)
	assert.False(t, ok)

	close(acks)
	close(source)
	waitForManager(t, manager)
	require.NoError(t, manager.Err())
}
