// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package telemetry ships extension manager events to remote
// telemetry endpoints over websocket connections.
package telemetry

import (
	"encoding/json"
)

// Message is a telemetry message to be shipped by the mailer.
type Message interface {
	messageType() string
}

// Client sends telemetry messages without blocking the caller.
type Client interface {
	SendMessage(msg Message)
}

// Endpoint is a telemetry websocket endpoint with its verbosity.
type Endpoint struct {
	Endpoint  string
	Verbosity int
}

// Noop is a no-op telemetry client implementation.
type Noop struct{}

// NewNoopMailer returns a no-op telemetry mailer implementation.
func NewNoopMailer() *Noop {
	return &Noop{}
}

// SendMessage does nothing.
func (*Noop) SendMessage(_ Message) {}

var _ json.Marshaler = (*messageJSON)(nil)

type messageJSON struct {
	message Message
	ts      string
}

func (m *messageJSON) MarshalJSON() ([]byte, error) {
	messageBytes, err := json.Marshal(m.message)
	if err != nil {
		return nil, err
	}

	messageMap := make(map[string]interface{})
	err = json.Unmarshal(messageBytes, &messageMap)
	if err != nil {
		return nil, err
	}

	messageMap["ts"] = m.ts
	messageMap["msg"] = m.message.messageType()

	return json.Marshal(messageMap)
}
