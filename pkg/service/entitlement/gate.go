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
	"github.com/ResonaProject/resona-core/pkg/api/notifications"
	"github.com/rs/zerolog/log"
)

// canPlayLocked is the core gate decision. Callers hold the engine mutex
// and have already run the opportunistic reset check.
func (e *Engine) canPlayLocked() bool {
	if e.blocked {
		return false
	}

	limit := e.catalog.Limit(e.state.Tier)
	if limit == Unlimited {
		return true
	}
	return e.state.PlaybackTimeUsed < limit
}

// CanPlay reports whether playback may currently proceed. The reset
// window is re-evaluated first so a long-idle client never reports a
// stale block.
func (e *Engine) CanPlay() bool {
	if !e.enabled() {
		return true
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.checkAndResetLocked(e.clock.Now())
	return e.canPlayLocked()
}

// AttemptPlay gates a specific track. On denial the matching UI intent is
// issued and a player pause is requested; the caller must not start
// playback. A guest with exhausted quota gets the login-prompt path
// instead of the generic limit path.
func (e *Engine) AttemptPlay(track Track) bool {
	if !e.enabled() {
		return true
	}

	e.mu.Lock()
	e.checkAndResetLocked(e.clock.Now())

	tier := e.state.Tier
	limit := e.catalog.Limit(tier)
	used := e.state.PlaybackTimeUsed

	if !e.canPlayLocked() {
		e.blocked = true
		ns := e.notificationsSend
		e.mu.Unlock()

		log.Info().
			Str("tier", string(tier)).
			Str("track", track.ID).
			Msg("entitlement: playback denied, quota exhausted")
		if ns != nil {
			e.sendLimitReached(ns, tier, used, limit)
		}
		return false
	}

	if !e.catalog.AllowsLanguage(tier, track.Language) {
		ns := e.notificationsSend
		e.mu.Unlock()

		log.Info().
			Str("tier", string(tier)).
			Str("track", track.ID).
			Str("language", track.Language).
			Msg("entitlement: playback denied, language restricted")
		if ns != nil {
			notifications.ShowLanguageRestriction(ns)
			notifications.PlayerPause(ns)
		}
		return false
	}

	e.mu.Unlock()
	return true
}

// CheckLanguageAccess reports whether the current tier may play tracks in
// the given language, issuing the language-restriction intent on denial.
func (e *Engine) CheckLanguageAccess(language string) bool {
	if !e.enabled() {
		return true
	}

	e.mu.Lock()
	tier := e.state.Tier
	ns := e.notificationsSend
	e.mu.Unlock()

	if e.catalog.AllowsLanguage(tier, language) {
		return true
	}

	log.Info().
		Str("tier", string(tier)).
		Str("language", language).
		Msg("entitlement: language access denied")
	if ns != nil {
		notifications.ShowLanguageRestriction(ns)
	}
	return false
}
