// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package telemetry

const extensionStoppedMsg = "exex.extension_stopped"

// ExtensionStoppedTM holds the `exex.extension_stopped` telemetry message,
// sent when an execution extension reaches a terminal state.
type ExtensionStoppedTM struct {
	Name string `json:"name"`
	// Status is the terminal status, either "removed" or "errored".
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// NewExtensionStoppedTM gets a new ExtensionStoppedTM struct.
func NewExtensionStoppedTM(name, status, reason string) ExtensionStoppedTM {
	return ExtensionStoppedTM{
		Name:   name,
		Status: status,
		Reason: reason,
	}
}

func (ExtensionStoppedTM) messageType() string {
	return extensionStoppedMsg
}
