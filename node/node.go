// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package node assembles the extension manager and its supporting
// services (metrics, telemetry) into a unit embedded in an execution
// node.
package node

import (
	"context"
	"fmt"

	"github.com/ChainSafe/exexd/exex"
	"github.com/ChainSafe/exexd/internal/log"
	"github.com/ChainSafe/exexd/internal/metrics"
	"github.com/ChainSafe/exexd/lib/chain"
	"github.com/ChainSafe/exexd/lib/services"
	"github.com/ChainSafe/exexd/telemetry"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "node"))

// DefaultMetricsAddress is the default listening address of the
// prometheus metrics server.
const DefaultMetricsAddress = "localhost:9876"

// Extension declares one execution extension to run.
type Extension struct {
	Name string
	Run  exex.ExtensionFunc
	// ChannelCapacity overrides the default notification channel
	// capacity when non zero.
	ChannelCapacity uint
}

// Config is the node-side configuration of the extension framework.
type Config struct {
	// Source is the ordered notification stream from the
	// execution pipeline.
	Source <-chan chain.Notification
	// Extensions are registered in order before dispatch starts.
	Extensions []Extension
	// DefaultChannelCapacity applies to extensions without their
	// own capacity.
	DefaultChannelCapacity uint

	MetricsEnabled bool
	MetricsAddress string

	TelemetryEnabled   bool
	TelemetryEndpoints []*telemetry.Endpoint

	// LogLevel patches the logger levels. The zero value
	// leaves the levels unchanged.
	LogLevel log.Level
}

// Node wires the extension manager with its supporting services.
type Node struct {
	manager         *exex.Manager
	registry        *services.Registry
	telemetryCancel context.CancelFunc
}

// New creates a node from the configuration given, registering all
// declared extensions. The registration window closes on Start.
func New(config Config) (node *Node, err error) {
	if config.LogLevel != log.DoNotChange {
		logger.Patch(log.SetLevel(config.LogLevel))
	}

	telemetryCtx, telemetryCancel := context.WithCancel(context.Background())
	telemetryClient := telemetry.BootstrapMailer(telemetryCtx,
		config.TelemetryEndpoints, config.TelemetryEnabled, logger)

	manager := exex.NewManager(exex.Config{
		Source:                 config.Source,
		DefaultChannelCapacity: config.DefaultChannelCapacity,
		Telemetry:              telemetryClient,
		LogLevel:               config.LogLevel,
	})

	for _, extension := range config.Extensions {
		var options []exex.RegisterOption
		if extension.ChannelCapacity > 0 {
			options = append(options,
				exex.WithChannelCapacity(extension.ChannelCapacity))
		}
		err := manager.Register(extension.Name, extension.Run, options...)
		if err != nil {
			telemetryCancel()
			return nil, fmt.Errorf("registering extension: %w", err)
		}
	}

	registry := services.NewRegistry(logger)
	registry.RegisterService(manager)

	if config.MetricsEnabled {
		address := config.MetricsAddress
		if address == "" {
			address = DefaultMetricsAddress
		}
		registry.RegisterService(metrics.NewServer(address))
	}

	return &Node{
		manager:         manager,
		registry:        registry,
		telemetryCancel: telemetryCancel,
	}, nil
}

// Manager returns the extension manager, for the execution pipeline
// and pruning collaborators.
func (n *Node) Manager() *exex.Manager {
	return n.manager
}

// Start starts all node services.
func (n *Node) Start() (err error) {
	return n.registry.StartAll()
}

// Stop stops all node services and returns the fatal extension
// fault, if any.
func (n *Node) Stop() (err error) {
	n.registry.StopAll()
	n.telemetryCancel()
	return n.manager.Err()
}

// Wait blocks until the extension manager halts, either from a Stop
// call or from an extension fault, and returns the fault if any.
// This is the node's top level operator visible error path.
func (n *Node) Wait() (err error) {
	<-n.manager.Done()
	return n.manager.Err()
}
