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

import "time"

// State is the durable entitlement record. It is the only part of the
// engine that survives a restart; tracking and blocking flags are runtime
// state and deliberately have no place in this type.
type State struct {
	// LastResetTime is the unix ms timestamp of the current window start,
	// or nil if no window has been established.
	LastResetTime *int64 `json:"lastResetTime"`
	// NextResetTime is the unix ms timestamp when the window ends, or nil
	// for unlimited/no-reset tiers.
	NextResetTime *int64 `json:"nextResetTime"`
	// Tier is the current subscription tier.
	Tier Tier `json:"tier"`
	// PlaybackTimeUsed is the seconds of playback consumed within the
	// current window.
	PlaybackTimeUsed int64 `json:"playbackTimeUsed"`
}

// coldStart returns the durable state of a fresh install: no established
// tier sync, zero usage, no reset window.
func coldStart() State {
	return State{Tier: TierGuest}
}

// normalize repairs a hydrated record so corrupt or hand-edited values
// can't wedge the engine.
func normalize(s State) State {
	s.Tier = ParseTier(string(s.Tier))
	if s.PlaybackTimeUsed < 0 {
		s.PlaybackTimeUsed = 0
	}
	return s
}

// tickState advances usage by one second of playback. Usage clamps at the
// limit rather than overshooting; once clamped further ticks are no-ops.
// Returns the new state, whether the limit was reached by this tick, and
// the seconds remaining.
func tickState(s State, limit int64) (next State, reached bool, remaining int64) {
	if limit == Unlimited {
		return s, false, 0
	}

	if s.PlaybackTimeUsed >= limit {
		return s, false, 0
	}

	s.PlaybackTimeUsed++
	if s.PlaybackTimeUsed >= limit {
		s.PlaybackTimeUsed = limit
		return s, true, 0
	}

	return s, false, limit - s.PlaybackTimeUsed
}

// applyResetWindow evaluates the reset window for the current tier and
// returns the updated state plus whether a quota reset occurred. It is
// idempotent: repeated calls inside the same window only repair a drifted
// NextResetTime. A backward clock jump never triggers a reset.
func applyResetWindow(s State, limit int64, interval time.Duration, now time.Time) (State, bool) {
	if limit == Unlimited || interval <= 0 {
		// Tier is never time-gated.
		s.NextResetTime = nil
		return s, false
	}

	nowMs := now.UnixMilli()

	if s.LastResetTime == nil {
		// First run: open the window without restoring usage.
		next := nowMs + interval.Milliseconds()
		s.LastResetTime = &nowMs
		s.NextResetTime = &next
		return s, false
	}

	elapsed := nowMs - *s.LastResetTime
	if elapsed < 0 {
		// Clock moved backwards; leave the window alone.
		return s, false
	}

	if elapsed >= interval.Milliseconds() {
		next := nowMs + interval.Milliseconds()
		s.PlaybackTimeUsed = 0
		s.LastResetTime = &nowMs
		s.NextResetTime = &next
		return s, true
	}

	// Inside the window: repair NextResetTime if it drifted.
	want := *s.LastResetTime + interval.Milliseconds()
	if s.NextResetTime == nil || *s.NextResetTime != want {
		s.NextResetTime = &want
	}
	return s, false
}

// Track identifies a playable item at the entitlement boundary. Language
// is a lowercase code like "en"; empty means the default language.
type Track struct {
	ID       string
	Language string
}
