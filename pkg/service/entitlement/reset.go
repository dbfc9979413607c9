// Resona Core
// Copyright (c) 2026 The Resona Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Resona Core.
//
// Resona Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Resona Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Resona Core.  If not, see <http://www.gnu.org/licenses/>.

package entitlement

import (
	"time"

	"github.com/ResonaProject/resona-core/pkg/api/notifications"
	"github.com/rs/zerolog/log"
)

// maintenanceInterval is how often the coarse reset check runs while the
// engine is live. The gate also re-checks opportunistically before every
// decision, so this only bounds how stale an idle client can get.
const maintenanceInterval = 60 * time.Second

// CheckAndResetLimits evaluates the reset window for the current tier and
// restores quota when the window has elapsed. Safe to call repeatedly:
// inside a window it is a no-op beyond repairing a drifted NextResetTime.
func (e *Engine) CheckAndResetLimits() {
	e.mu.Lock()
	reset := e.checkAndResetLocked(e.clock.Now())
	ns := e.notificationsSend
	e.mu.Unlock()

	if reset && ns != nil {
		notifications.QuotaReset(ns)
		notifications.CloseAllIntents(ns)
	}
}

// checkAndResetLocked applies the reset window to the durable record and
// recomputes the block for tiers that are never time-gated. Returns true
// when a quota reset occurred.
func (e *Engine) checkAndResetLocked(now time.Time) bool {
	limit := e.catalog.Limit(e.state.Tier)
	interval := e.catalog.ResetInterval(e.state.Tier)

	before := e.state
	next, reset := applyResetWindow(e.state, limit, interval, now)
	e.state = next

	switch {
	case limit == Unlimited:
		// Unlimited tiers can never be blocked by quota.
		e.blocked = false
	case interval <= 0:
		// No reset window: the block derives from usage alone.
		e.blocked = e.state.PlaybackTimeUsed >= limit
	case reset:
		e.blocked = false
		e.warned = false
		log.Info().
			Str("tier", string(e.state.Tier)).
			Msg("entitlement: reset window elapsed, quota restored")
	}

	if reset || !statesEqual(before, e.state) {
		e.persistLocked()
	}
	return reset
}

// statesEqual compares durable records including their optional
// timestamps.
func statesEqual(a, b State) bool {
	if a.Tier != b.Tier || a.PlaybackTimeUsed != b.PlaybackTimeUsed {
		return false
	}
	if !int64PtrEqual(a.LastResetTime, b.LastResetTime) {
		return false
	}
	return int64PtrEqual(a.NextResetTime, b.NextResetTime)
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// maintenanceLoop runs the coarse reset check until the engine shuts
// down.
func (e *Engine) maintenanceLoop() {
	ticker := e.clock.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	// Immediate check so hydrated state is normalized at startup.
	e.CheckAndResetLimits()

	for {
		select {
		case <-ticker.Chan():
			e.CheckAndResetLimits()
		case <-e.ctx.Done():
			return
		}
	}
}
