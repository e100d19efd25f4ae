// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package telemetry

const extensionRegisteredMsg = "exex.extension_registered"

// ExtensionRegisteredTM holds the `exex.extension_registered` telemetry
// message, sent when an execution extension registers with the manager.
type ExtensionRegisteredTM struct {
	Name     string `json:"name"`
	Capacity uint   `json:"capacity"`
}

// NewExtensionRegisteredTM gets a new ExtensionRegisteredTM struct.
func NewExtensionRegisteredTM(name string, capacity uint) ExtensionRegisteredTM {
	return ExtensionRegisteredTM{
		Name:     name,
		Capacity: capacity,
	}
}

func (ExtensionRegisteredTM) messageType() string {
	return extensionRegisteredMsg
}
