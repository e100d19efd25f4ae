// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package exex implements the execution extension manager: it fans the
// ordered stream of chain-state change notifications out to every
// registered extension, enforces per-extension flow control, aggregates
// acknowledged heights into a global safe-to-prune watermark and
// supervises extension task lifecycles.
package exex

import (
	"context"
	"fmt"
	"sync"

	"github.com/ChainSafe/exexd/internal/log"
	"github.com/ChainSafe/exexd/lib/chain"
	"github.com/ChainSafe/exexd/telemetry"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "exex"))

// DefaultChannelCapacity is the notification channel capacity used for
// extensions registered without an explicit capacity.
const DefaultChannelCapacity uint = 128

const (
	maxSubscriptions         = 256
	finishedEventsBufferSize = 256
)

// Config is the configuration for the extension manager.
type Config struct {
	// Source is the ordered stream of chain-state change
	// notifications produced by the execution pipeline. The manager
	// never reorders, drops or duplicates items from this stream.
	// Closing the source shuts the manager down cleanly.
	Source <-chan chain.Notification
	// DefaultChannelCapacity overrides DefaultChannelCapacity
	// for extensions registered without a capacity option.
	DefaultChannelCapacity uint
	// Telemetry is the telemetry client to use.
	// It defaults to a no-op client.
	Telemetry telemetry.Client
	// LogLevel patches the package logger level.
	// The zero value leaves the level unchanged.
	LogLevel log.Level
}

// Manager owns all registered extensions, their channels and their
// tasks. All communication with extension logic goes through bounded
// channels; each mutable field has a single writing goroutine.
type Manager struct {
	source          <-chan chain.Notification
	defaultCapacity uint
	telemetry       telemetry.Client

	mutex   sync.RWMutex
	byName  map[string]*extension
	order   []*extension // registration order, fixes fan-out order
	started bool
	stopped bool
	fault   error
	// inFlight is the notification being fanned out, for fault reports.
	inFlight chain.Notification

	finishedHeight    chain.Height
	hasFinishedHeight bool
	subscriptions     map[uint32]chan chain.Height

	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	dispatcherDone chan struct{}
	finishedEvents chan finishedHeightEvent
	done           chan struct{}
}

// NewManager creates a new extension manager from the config given.
// Extensions are registered on the returned manager before Start is
// called; the registration window closes when dispatch begins.
func NewManager(config Config) *Manager {
	if config.LogLevel != log.DoNotChange {
		logger.Patch(log.SetLevel(config.LogLevel))
	}

	if config.DefaultChannelCapacity == 0 {
		config.DefaultChannelCapacity = DefaultChannelCapacity
	}

	if config.Telemetry == nil {
		config.Telemetry = telemetry.NewNoopMailer()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		source:          config.Source,
		defaultCapacity: config.DefaultChannelCapacity,
		telemetry:       config.Telemetry,
		byName:          make(map[string]*extension),
		subscriptions:   make(map[uint32]chan chain.Height),
		ctx:             ctx,
		cancel:          cancel,
		dispatcherDone:  make(chan struct{}),
		finishedEvents:  make(chan finishedHeightEvent, finishedEventsBufferSize),
		done:            make(chan struct{}),
	}
}

// RegisterOption modifies the registration of one extension.
type RegisterOption func(s *registerSettings)

type registerSettings struct {
	capacity uint
}

// WithChannelCapacity sets the notification channel capacity for
// the extension being registered, overriding the manager default.
func WithChannelCapacity(capacity uint) RegisterOption {
	return func(s *registerSettings) {
		s.capacity = capacity
	}
}

// Register registers an extension under the unique name given, to be
// run by the manager once it starts. The order of registrations fixes
// the fan-out order. It returns ErrDuplicateIdentity if the name is
// already registered, and ErrRegistrationWindowClosed if the manager
// has already started.
func (m *Manager) Register(name string, fn ExtensionFunc,
	options ...RegisterOption) (err error) {
	settings := registerSettings{capacity: m.defaultCapacity}
	for _, option := range options {
		option(&settings)
	}
	if settings.capacity == 0 {
		settings.capacity = m.defaultCapacity
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.started {
		return fmt.Errorf("%w: cannot register extension %s",
			ErrRegistrationWindowClosed, name)
	}

	if _, exists := m.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateIdentity, name)
	}

	ext := newExtension(name, fn, settings.capacity)
	m.byName[name] = ext
	m.order = append(m.order, ext)

	logger.Infof("registered extension %s with channel capacity %d",
		name, settings.capacity)
	m.telemetry.SendMessage(telemetry.NewExtensionRegisteredTM(name, settings.capacity))
	return nil
}

// Deregister removes the extension with the name given and closes its
// channels. It is idempotent if the name is absent. It returns
// ErrRegistrationWindowClosed if the manager has already started.
func (m *Manager) Deregister(name string) (err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.started {
		return fmt.Errorf("%w: cannot deregister extension %s",
			ErrRegistrationWindowClosed, name)
	}

	ext, exists := m.byName[name]
	if !exists {
		return nil
	}

	delete(m.byName, name)
	for i := range m.order {
		if m.order[i] == ext {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	close(ext.notifications)
	close(ext.finished)
	return nil
}

// Start closes the registration window and starts the dispatcher, the
// aggregator and one task per registered extension.
func (m *Manager) Start() (err error) {
	m.mutex.Lock()

	if m.started {
		m.mutex.Unlock()
		return ErrManagerAlreadyStarted
	}

	if m.source == nil {
		m.mutex.Unlock()
		return ErrNilNotificationSource
	}

	m.started = true
	for _, ext := range m.order {
		ext.status = Active
	}
	extensions := make([]*extension, len(m.order))
	copy(extensions, m.order)
	m.mutex.Unlock()

	logger.Infof("starting extension manager with %d extensions", len(extensions))

	m.wg.Add(1)
	go m.aggregate()

	for _, ext := range extensions {
		m.wg.Add(2)
		go m.supervise(ext)
		go m.forwardAcknowledgements(ext)
	}

	m.wg.Add(1)
	go m.dispatch()

	// closes the notification channels once the dispatcher has
	// returned, so draining extensions observe end of stream.
	go func() {
		<-m.ctx.Done()
		<-m.dispatcherDone

		m.mutex.Lock()
		for _, ext := range m.order {
			if !ext.status.terminal() {
				ext.status = ShuttingDown
			}
			close(ext.notifications)
		}
		m.mutex.Unlock()
	}()

	go func() {
		m.wg.Wait()
		close(m.done)
	}()

	return nil
}

// Stop shuts the manager down: it cancels all outstanding sends,
// closes all notification channels and waits for every extension task
// to terminate. It returns the fatal extension fault, if any.
func (m *Manager) Stop() (err error) {
	m.mutex.Lock()
	if !m.started || m.stopped {
		m.stopped = true
		m.mutex.Unlock()
		m.cancel()
		return nil
	}
	m.stopped = true
	m.mutex.Unlock()

	m.cancel()
	<-m.done
	return m.Err()
}

// Done is closed once the manager has fully shut down,
// either from a Stop call or from an extension fault.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Err returns the fatal extension fault which halted the manager,
// or nil if the manager is running or was stopped cleanly.
func (m *Manager) Err() error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.fault
}

// fail records the first fatal fault and initiates shutdown.
func (m *Manager) fail(err error) {
	m.mutex.Lock()
	if m.fault == nil {
		m.fault = err
		logger.Criticalf("halting extension manager: %s", err)
	}
	m.mutex.Unlock()
	m.cancel()
}

// ExtensionStatus returns the lifecycle status of the extension
// with the name given.
func (m *Manager) ExtensionStatus(name string) (status Status, err error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	ext, exists := m.byName[name]
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrUnknownIdentity, name)
	}
	return ext.status, nil
}

func (m *Manager) inFlightString() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.inFlight == nil {
		return "none"
	}
	return m.inFlight.String()
}
