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

package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Playback lifecycle events published by the player front end.
const (
	NotificationPlaybackStarted     = "playback.started"
	NotificationPlaybackPaused      = "playback.paused"
	NotificationPlaybackTrackSwitch = "playback.trackSwitch"
	NotificationAppResumed          = "app.resumed"
	NotificationTierSynced          = "auth.tierSynced"
)

// UI intents issued by the entitlement engine. The presentation layer is
// expected to honor these; on a blocking intent it must pause the player.
const (
	NotificationLoginPrompt         = "ui.loginPrompt"
	NotificationTimeLimit           = "ui.timeLimit"
	NotificationUpgrade             = "ui.upgrade"
	NotificationLanguageRestriction = "ui.languageRestriction"
	NotificationCloseIntents        = "ui.closeAll"
	NotificationPlayerPause         = "player.pause"
	NotificationLowTimeWarning      = "entitlement.lowTime"
	NotificationQuotaReset          = "entitlement.quotaReset"
)

// JSON-RPC methods served by the local API.
const (
	MethodEntitlementStatus = "entitlement.status"
	MethodEntitlementTiers  = "entitlement.tiers"
	MethodEntitlementReset  = "entitlement.reset"
	MethodSettings          = "settings"
	MethodSettingsUpdate    = "settings.update"
	MethodVersion           = "version"
)

type Notification struct {
	Params any    `json:"params,omitempty"`
	Method string `json:"method"`
}

type RequestObject struct {
	ID      *uuid.UUID      `json:"id,omitempty"`
	Method  string          `json:"method"`
	JSONRPC string          `json:"jsonrpc"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type ErrorObject struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type ResponseObject struct {
	Result  any          `json:"result"`
	Error   *ErrorObject `json:"error,omitempty"`
	JSONRPC string       `json:"jsonrpc"`
	ID      uuid.UUID    `json:"id"`
}

// TierSyncParams carries an external auth/tier-sync signal.
type TierSyncParams struct {
	Tier            string `json:"tier"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// TrackParams identifies the track a playback event refers to.
type TrackParams struct {
	ID       string `json:"id"`
	Language string `json:"language,omitempty"`
}

// UpgradeParams carries the reason an upgrade prompt was requested.
type UpgradeParams struct {
	Reason string `json:"reason"`
}

// TimeLimitParams describes the exhausted quota behind a time-limit intent.
type TimeLimitParams struct {
	Tier         string `json:"tier"`
	UsedSeconds  int64  `json:"usedSeconds"`
	LimitSeconds int64  `json:"limitSeconds"`
}

// LowTimeWarningParams carries the advisory low-time warning payload.
type LowTimeWarningParams struct {
	RemainingSeconds int64 `json:"remainingSeconds"`
}

// EntitlementStatusResponse is the result of the entitlement.status method.
type EntitlementStatusResponse struct {
	Tier             string `json:"tier"`
	UsedSeconds      int64  `json:"usedSeconds"`
	LimitSeconds     int64  `json:"limitSeconds"`
	RemainingSeconds int64  `json:"remainingSeconds"`
	LastResetTime    *int64 `json:"lastResetTime"`
	NextResetTime    *int64 `json:"nextResetTime"`
	Blocked          bool   `json:"blocked"`
	Tracking         bool   `json:"tracking"`
}

// TierInfo describes one catalog tier in the entitlement.tiers result.
type TierInfo struct {
	Name                 string   `json:"name"`
	LimitSeconds         int64    `json:"limitSeconds"`
	ResetIntervalSeconds int64    `json:"resetIntervalSeconds"`
	Languages            []string `json:"languages,omitempty"`
	AllLanguages         bool     `json:"allLanguages"`
}

// VersionResponse is the result of the version method.
type VersionResponse struct {
	Version  string `json:"version"`
	Platform string `json:"platform"`
	DeviceID string `json:"deviceId"`
}

// SettingsResponse is the result of the settings method.
type SettingsResponse struct {
	EntitlementEnabled bool `json:"entitlementEnabled"`
	DebugLogging       bool `json:"debugLogging"`
	APIPort            int  `json:"apiPort"`
}

// SettingsUpdateParams carries partial settings updates; nil fields are
// left unchanged.
type SettingsUpdateParams struct {
	EntitlementEnabled *bool `json:"entitlementEnabled,omitempty"`
	DebugLogging       *bool `json:"debugLogging,omitempty"`
}
