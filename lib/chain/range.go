// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package chain defines the canonical chain-state change types shared
// between the execution pipeline and the extension manager.
package chain

import (
	"errors"
	"fmt"
)

// Height is a block height on the canonical chain.
type Height uint

// ID identifies the chain a range of blocks belongs to.
type ID string

// ErrInvalidRange is returned when building a range whose end
// is below its start.
var ErrInvalidRange = errors.New("invalid block range")

// Range is an inclusive range of block heights on one chain.
type Range struct {
	Chain ID
	Start Height
	End   Height
}

// NewRange returns the inclusive block range [start, end] on the
// given chain, or an error if end is below start.
func NewRange(chain ID, start, end Height) (r Range, err error) {
	if end < start {
		return Range{}, fmt.Errorf("%w: end %d is below start %d",
			ErrInvalidRange, end, start)
	}
	return Range{Chain: chain, Start: start, End: end}, nil
}

// Len returns the number of blocks in the range.
func (r Range) Len() uint {
	return uint(r.End-r.Start) + 1
}

// Tip returns the highest height of the range.
func (r Range) Tip() Height {
	return r.End
}

func (r Range) String() string {
	return fmt.Sprintf("%s[%d..%d]", r.Chain, r.Start, r.End)
}
