// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package telemetry

const finishedHeightMsg = "exex.finished_height"

// FinishedHeightTM holds the `exex.finished_height` telemetry message,
// sent when the global minimum acknowledged height increases.
type FinishedHeightTM struct {
	// Height is the new safe-to-prune watermark.
	Height string `json:"height"`
}

// NewFinishedHeightTM gets a new FinishedHeightTM struct.
func NewFinishedHeightTM(height string) FinishedHeightTM {
	return FinishedHeightTM{
		Height: height,
	}
}

func (FinishedHeightTM) messageType() string {
	return finishedHeightMsg
}
