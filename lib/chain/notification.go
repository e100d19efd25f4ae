// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package chain

import (
	"fmt"
)

// Notification is an immutable record of a canonical chain-state change.
// It is one of Committed, Reverted or Reorged.
type Notification interface {
	fmt.Stringer
	// CommittedRange returns the newly canonical block range
	// and true, or false if no blocks became canonical.
	CommittedRange() (r Range, ok bool)
	// RevertedRange returns the block range removed from the
	// canonical chain and true, or false if no blocks were removed.
	RevertedRange() (r Range, ok bool)

	isNotification()
}

// Committed notifies that a range of blocks was appended
// to the canonical chain.
type Committed struct {
	Committed Range
}

// CommittedRange returns the committed block range.
func (c Committed) CommittedRange() (r Range, ok bool) {
	return c.Committed, true
}

// RevertedRange returns false since no blocks were reverted.
func (c Committed) RevertedRange() (r Range, ok bool) {
	return Range{}, false
}

func (c Committed) String() string {
	return fmt.Sprintf("committed %s", c.Committed)
}

func (Committed) isNotification() {}

// Reverted notifies that a range of blocks was removed from
// the canonical chain without replacement.
type Reverted struct {
	Reverted Range
}

// CommittedRange returns false since no blocks were committed.
func (r Reverted) CommittedRange() (rng Range, ok bool) {
	return Range{}, false
}

// RevertedRange returns the reverted block range.
func (r Reverted) RevertedRange() (rng Range, ok bool) {
	return r.Reverted, true
}

func (r Reverted) String() string {
	return fmt.Sprintf("reverted %s", r.Reverted)
}

func (Reverted) isNotification() {}

// Reorged notifies that the canonical chain switched from the
// old range to the new range.
type Reorged struct {
	Old Range
	New Range
}

// CommittedRange returns the newly canonical block range.
func (r Reorged) CommittedRange() (rng Range, ok bool) {
	return r.New, true
}

// RevertedRange returns the block range that lost canonicity.
func (r Reorged) RevertedRange() (rng Range, ok bool) {
	return r.Old, true
}

func (r Reorged) String() string {
	return fmt.Sprintf("reorged %s to %s", r.Old, r.New)
}

func (Reorged) isNotification() {}
