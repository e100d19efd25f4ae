// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package exex

import (
	"testing"

	"github.com/ChainSafe/exexd/lib/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopExtension(ctx *Context) error {
	for range ctx.Notifications() {
	}
	return nil
}

func Test_Manager_Register(t *testing.T) {
	t.Parallel()

	source := make(chan chain.Notification)
	manager := newTestManager(source)

	err := manager.Register("indexer", noopExtension)
	require.NoError(t, err)

	err = manager.Register("indexer", noopExtension)
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	status, err := manager.ExtensionStatus("indexer")
	require.NoError(t, err)
	assert.Equal(t, Registering, status)

	_, err = manager.ExtensionStatus("unknown")
	assert.ErrorIs(t, err, ErrUnknownIdentity)
}

func Test_Manager_Register_windowClosed(t *testing.T) {
	t.Parallel()

	source := make(chan chain.Notification)
	manager := newTestManager(source)

	err := manager.Register("indexer", noopExtension)
	require.NoError(t, err)

	err = manager.Start()
	require.NoError(t, err)

	err = manager.Register("late", noopExtension)
	assert.ErrorIs(t, err, ErrRegistrationWindowClosed)

	err = manager.Deregister("indexer")
	assert.ErrorIs(t, err, ErrRegistrationWindowClosed)

	err = manager.Stop()
	assert.NoError(t, err)
}

func Test_Manager_Deregister(t *testing.T) {
	t.Parallel()

	source := make(chan chain.Notification)
	manager := newTestManager(source)

	err := manager.Register("indexer", noopExtension)
	require.NoError(t, err)

	err = manager.Deregister("indexer")
	require.NoError(t, err)

	// deregistering is idempotent
	err = manager.Deregister("indexer")
	require.NoError(t, err)

	// the identity can be registered again
	err = manager.Register("indexer", noopExtension)
	require.NoError(t, err)
}

func Test_Manager_Start(t *testing.T) {
	t.Parallel()

	manager := newTestManager(nil)
	err := manager.Start()
	assert.ErrorIs(t, err, ErrNilNotificationSource)

	source := make(chan chain.Notification)
	manager = newTestManager(source)
	err = manager.Start()
	require.NoError(t, err)

	err = manager.Start()
	assert.ErrorIs(t, err, ErrManagerAlreadyStarted)

	err = manager.Stop()
	assert.NoError(t, err)
}
