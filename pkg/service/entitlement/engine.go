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

// Package entitlement meters cumulative playback time per subscription
// tier, decides in real time whether playback may proceed, and manages
// the rolling reset windows that restore quota.
package entitlement

import (
	"context"
	"time"

	"github.com/ResonaProject/resona-core/pkg/api/models"
	"github.com/ResonaProject/resona-core/pkg/api/notifications"
	"github.com/ResonaProject/resona-core/pkg/config"
	"github.com/ResonaProject/resona-core/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	// tickPeriod is how often usage is metered while tracking.
	tickPeriod = 1 * time.Second
	// lowTimeWarningSeconds is the remaining-quota threshold that emits
	// the advisory low-time warning.
	lowTimeWarningSeconds = 60
)

// TrackingState is the tracker's runtime mode.
type TrackingState int

const (
	// StateIdle means no tracking session exists.
	StateIdle TrackingState = iota
	// StateTracking means usage is being metered.
	StateTracking
	// StatePaused means a session exists but metering is suspended.
	StatePaused
)

func (s TrackingState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTracking:
		return "tracking"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Store persists the durable entitlement record.
type Store interface {
	// Load returns the stored record. ok is false when no record exists.
	Load() (state State, ok bool, err error)
	// Save replaces the stored record.
	Save(state State) error
}

// Broker is the interface for subscribing to service notifications.
type Broker interface {
	Subscribe(bufferSize int) (<-chan models.Notification, int)
	Unsubscribe(id int)
}

// Engine is the playback entitlement engine. All durable and volatile
// entitlement state is owned exclusively by the engine and serialized
// behind a single mutex; external code interacts through the inbound
// event methods and read-only accessors.
type Engine struct {
	clock             clockwork.Clock
	catalog           *Catalog
	cfg               *config.Instance
	store             Store
	ctx               context.Context
	cancel            context.CancelFunc
	notificationsSend chan<- models.Notification

	mu           syncutil.Mutex
	state        State
	mode         TrackingState
	blocked      bool
	warned       bool
	sessionStart time.Time
	ticker       clockwork.Ticker
	tickStop     chan struct{}

	subscriptionID int
}

// NewEngine creates an entitlement engine, hydrating the durable record
// from the store. A missing or unreadable record is treated as a cold
// start. The engine always begins idle and unblocked regardless of what
// was persisted.
func NewEngine(
	cfg *config.Instance,
	catalog *Catalog,
	store Store,
	clock clockwork.Clock,
) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if catalog == nil {
		catalog = NewCatalog()
	}

	state := coldStart()
	if store != nil {
		stored, ok, err := store.Load()
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("entitlement: failed to load stored state, cold starting")
		case ok:
			state = normalize(stored)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		cfg:     cfg,
		catalog: catalog,
		store:   store,
		clock:   clock,
		ctx:     ctx,
		cancel:  cancel,
		state:   state,
		mode:    StateIdle,
	}
}

// Start begins processing playback lifecycle events from the broker and
// starts the coarse reset-window maintenance loop. Outbound intents are
// published to notificationsSend.
func (e *Engine) Start(broker Broker, notificationsSend chan<- models.Notification) {
	e.mu.Lock()
	e.notificationsSend = notificationsSend
	e.mu.Unlock()

	notifChan, subID := broker.Subscribe(10)
	e.subscriptionID = subID

	go e.handleNotifications(notifChan, broker)
	go e.maintenanceLoop()
}

// Stop shuts down the engine and releases its timer resources.
func (e *Engine) Stop() {
	e.cancel()
	e.StopTracking()
}

// handleNotifications processes playback lifecycle events from the broker.
func (e *Engine) handleNotifications(notifChan <-chan models.Notification, broker Broker) {
	log.Debug().Msg("entitlement: notification handler started")
	defer func() {
		broker.Unsubscribe(e.subscriptionID)
		log.Debug().Msg("entitlement: notification handler stopped")
	}()

	for {
		select {
		case notif, ok := <-notifChan:
			if !ok {
				return
			}

			switch notif.Method {
			case models.NotificationPlaybackStarted:
				e.OnPlaybackStart(trackFromParams(notif.Params))
			case models.NotificationPlaybackPaused:
				e.OnPlaybackPause()
			case models.NotificationPlaybackTrackSwitch:
				e.OnTrackSwitch(trackFromParams(notif.Params))
			case models.NotificationAppResumed:
				e.OnResumeFromBackground()
			case models.NotificationTierSynced:
				if p, ok := tierSyncFromParams(notif.Params); ok {
					e.OnTierSync(p.IsAuthenticated, p.Tier)
				}
			}

		case <-e.ctx.Done():
			return
		}
	}
}

func trackFromParams(params any) Track {
	switch p := params.(type) {
	case models.TrackParams:
		return Track{ID: p.ID, Language: p.Language}
	case *models.TrackParams:
		return Track{ID: p.ID, Language: p.Language}
	default:
		return Track{}
	}
}

func tierSyncFromParams(params any) (models.TierSyncParams, bool) {
	switch p := params.(type) {
	case models.TierSyncParams:
		return p, true
	case *models.TierSyncParams:
		return *p, true
	default:
		return models.TierSyncParams{}, false
	}
}

// enabled reports whether entitlement enforcement is switched on. A nil
// config means enforcement is always on.
func (e *Engine) enabled() bool {
	return e.cfg == nil || e.cfg.EntitlementEnabled()
}

// OnPlaybackStart handles a play signal from the player: gate the track,
// then begin metering.
func (e *Engine) OnPlaybackStart(track Track) {
	if !e.enabled() {
		return
	}
	if !e.AttemptPlay(track) {
		return
	}
	e.StartTracking()
}

// OnPlaybackPause handles a pause signal from the player.
func (e *Engine) OnPlaybackPause() {
	e.PauseTracking()
}

// OnTrackSwitch re-gates playback for the new track. Metering continues
// across the switch without double-counting: an already-running session
// is reused rather than restarted.
func (e *Engine) OnTrackSwitch(track Track) {
	if !e.enabled() {
		return
	}
	if !e.AttemptPlay(track) {
		e.PauseTracking()
		return
	}
	if !e.ResumeTracking() {
		e.StartTracking()
	}
}

// OnMaintenanceTick runs the coarse reset-window check. The service calls
// this on a timer; it is also safe to call at any time.
func (e *Engine) OnMaintenanceTick() {
	e.CheckAndResetLimits()
}

// OnResumeFromBackground re-runs the reset check so a long-idle client
// doesn't report a stale block.
func (e *Engine) OnResumeFromBackground() {
	e.CheckAndResetLimits()
}

// OnTierSync applies an external auth/tier-sync signal. A de-auth tears
// the record down to the guest cold-start state; an authenticated sync
// overwrites the tier and re-evaluates the reset window and block.
func (e *Engine) OnTierSync(isAuthenticated bool, tierName string) {
	e.mu.Lock()

	if !isAuthenticated {
		e.stopTimerLocked()
		e.mode = StateIdle
		e.sessionStart = time.Time{}
		e.blocked = false
		e.warned = false
		e.state = coldStart()
		e.persistLocked()
		e.mu.Unlock()
		log.Info().Msg("entitlement: de-authenticated, reset to guest")
		return
	}

	newTier := ParseTier(tierName)
	if newTier == e.state.Tier {
		e.mu.Unlock()
		return
	}

	oldTier := e.state.Tier
	e.state.Tier = newTier
	e.warned = false
	e.checkAndResetLocked(e.clock.Now())

	// Usage carries across the tier change; only the block is recomputed
	// against the new tier's quota.
	limit := e.catalog.Limit(newTier)
	blocked := limit != Unlimited && e.state.PlaybackTimeUsed >= limit
	e.blocked = blocked

	// A downgrade can exhaust the new quota mid-session. A blocked engine
	// must not keep a session running: release the timer, go idle and tell
	// the player to stop.
	sessionLive := e.mode != StateIdle
	if blocked && sessionLive {
		e.stopTimerLocked()
		e.mode = StateIdle
		e.sessionStart = time.Time{}
	}

	used := e.state.PlaybackTimeUsed
	e.persistLocked()
	ns := e.notificationsSend
	e.mu.Unlock()

	log.Info().
		Str("from", string(oldTier)).
		Str("to", string(newTier)).
		Bool("blocked", blocked).
		Msg("entitlement: tier synced")

	if ns == nil {
		return
	}
	if blocked && sessionLive {
		e.sendLimitReached(ns, newTier, used, limit)
	} else if !blocked {
		notifications.CloseAllIntents(ns)
	}
}

// StartTracking begins metering playback time. It is a no-op if a session
// is already running: at most one live timer exists per engine. Returns
// false if the gate currently forbids playback.
func (e *Engine) StartTracking() bool {
	e.mu.Lock()

	if e.mode == StateTracking {
		e.mu.Unlock()
		return true
	}

	e.checkAndResetLocked(e.clock.Now())
	if !e.canPlayLocked() {
		e.mu.Unlock()
		return false
	}

	e.mode = StateTracking
	e.sessionStart = e.clock.Now()
	e.startTimerLocked()
	e.mu.Unlock()

	log.Info().Msg("entitlement: tracking started")
	return true
}

// PauseTracking suspends metering without discarding the session. Usage
// and the blocked flag are unchanged.
func (e *Engine) PauseTracking() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != StateTracking {
		return
	}

	e.mode = StatePaused
	e.stopTimerLocked()
	log.Info().Msg("entitlement: tracking paused")
}

// ResumeTracking restarts metering after a pause. Returns false unless a
// paused session exists and playback isn't blocked.
func (e *Engine) ResumeTracking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != StatePaused || e.blocked || e.ticker != nil {
		return false
	}

	e.mode = StateTracking
	e.startTimerLocked()
	log.Info().Msg("entitlement: tracking resumed")
	return true
}

// StopTracking ends the session from any state and releases the timer.
// Usage and the blocked flag are left as-is.
func (e *Engine) StopTracking() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode == StateIdle && e.ticker == nil {
		return
	}

	e.mode = StateIdle
	e.sessionStart = time.Time{}
	e.stopTimerLocked()
	log.Info().Msg("entitlement: tracking stopped")
}

// ResetTracking tears down the durable record: usage and the reset window
// are zeroed while the tier is kept. The session ends and any block is
// cleared.
func (e *Engine) ResetTracking() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopTimerLocked()
	e.mode = StateIdle
	e.sessionStart = time.Time{}
	e.blocked = false
	e.warned = false
	e.state = State{Tier: e.state.Tier}
	e.persistLocked()
	log.Info().Msg("entitlement: tracking state reset")
}

// startTimerLocked starts the periodic tick process for finite tiers.
// Unlimited tiers track without a timer since there is nothing to meter.
func (e *Engine) startTimerLocked() {
	if e.catalog.Limit(e.state.Tier) == Unlimited {
		return
	}
	if e.ticker != nil {
		// Guard: a second live timer is a bug.
		return
	}

	e.ticker = e.clock.NewTicker(tickPeriod)
	e.tickStop = make(chan struct{})
	go e.tickLoop(e.ticker, e.tickStop)
}

// stopTimerLocked releases the timer deterministically. Once this
// returns, a queued tick can no longer increment usage because tick()
// re-checks the mode under the lock.
func (e *Engine) stopTimerLocked() {
	if e.ticker != nil {
		e.ticker.Stop()
		e.ticker = nil
	}
	if e.tickStop != nil {
		close(e.tickStop)
		e.tickStop = nil
	}
}

// tickLoop delivers ticks until the session's stop channel closes or the
// engine shuts down.
func (e *Engine) tickLoop(ticker clockwork.Ticker, stop <-chan struct{}) {
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			e.tick()
		case <-stop:
			return
		case <-e.ctx.Done():
			return
		}
	}
}

// tick meters one second of playback. Reaching the limit clamps usage,
// releases the timer, blocks playback and issues the limit-reached
// intent. Crossing the low-time threshold emits an advisory warning.
func (e *Engine) tick() {
	e.mu.Lock()

	if e.mode != StateTracking {
		// A stop or pause raced with a queued tick.
		e.mu.Unlock()
		return
	}

	limit := e.catalog.Limit(e.state.Tier)
	next, reached, remaining := tickState(e.state, limit)
	e.state = next

	// At-or-below rather than exact equality so state hydrated already
	// inside the threshold still warns on its first tick.
	warn := false
	if !reached && remaining > 0 && remaining <= lowTimeWarningSeconds && !e.warned {
		e.warned = true
		warn = true
	}

	if reached {
		e.blocked = true
		e.mode = StateIdle
		e.sessionStart = time.Time{}
		e.stopTimerLocked()
	}

	e.persistLocked()
	tier := e.state.Tier
	used := e.state.PlaybackTimeUsed
	ns := e.notificationsSend
	e.mu.Unlock()

	if ns == nil {
		return
	}

	if warn {
		log.Info().Int64("remaining", remaining).Msg("entitlement: low-time warning threshold reached")
		notifications.LowTimeWarning(ns, models.LowTimeWarningParams{
			RemainingSeconds: remaining,
		})
	}

	if reached {
		log.Warn().
			Str("tier", string(tier)).
			Int64("used", used).
			Msg("entitlement: playback limit reached")
		e.sendLimitReached(ns, tier, used, limit)
	}
}

// sendLimitReached issues the limit-reached intent path: a login prompt
// for guests, the time-limit modal plus an upgrade nudge otherwise, and a
// player pause request. The presentation layer owns honoring these.
func (e *Engine) sendLimitReached(
	ns chan<- models.Notification,
	tier Tier,
	used, limit int64,
) {
	if tier == TierGuest {
		notifications.ShowLoginPrompt(ns)
	} else {
		notifications.ShowTimeLimit(ns, models.TimeLimitParams{
			Tier:         string(tier),
			UsedSeconds:  used,
			LimitSeconds: limit,
		})
		notifications.ShowUpgrade(ns, "time_limit_reached")
	}
	notifications.PlayerPause(ns)
}

// persistLocked writes the durable record through the store. Persistence
// failures are logged, not fatal: the engine keeps enforcing from memory.
func (e *Engine) persistLocked() {
	if e.store == nil {
		return
	}
	if err := e.store.Save(e.state); err != nil {
		log.Error().Err(err).Msg("entitlement: failed to persist state")
	}
}

// Snapshot returns a copy of the durable record.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Tracking reports whether usage is currently being metered.
func (e *Engine) Tracking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode == StateTracking
}

// Blocked reports whether the gate currently forbids playback.
func (e *Engine) Blocked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.blocked
}

// Status reports the engine's current entitlement status for the API.
func (e *Engine) Status() models.EntitlementStatusResponse {
	e.mu.Lock()
	defer e.mu.Unlock()

	limit := e.catalog.Limit(e.state.Tier)
	remaining := int64(0)
	if limit != Unlimited && limit > e.state.PlaybackTimeUsed {
		remaining = limit - e.state.PlaybackTimeUsed
	}

	return models.EntitlementStatusResponse{
		Tier:             string(e.state.Tier),
		UsedSeconds:      e.state.PlaybackTimeUsed,
		LimitSeconds:     limit,
		RemainingSeconds: remaining,
		LastResetTime:    e.state.LastResetTime,
		NextResetTime:    e.state.NextResetTime,
		Blocked:          e.blocked,
		Tracking:         e.mode == StateTracking,
	}
}

// Catalog returns the tier catalog the engine consults.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}
