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

// Package notifications provides helpers for publishing typed notifications
// and UI intents to the service notification channel.
package notifications

import "github.com/ResonaProject/resona-core/pkg/api/models"

func PlaybackStarted(ns chan<- models.Notification, payload models.TrackParams) {
	ns <- models.Notification{
		Method: models.NotificationPlaybackStarted,
		Params: payload,
	}
}

func PlaybackPaused(ns chan<- models.Notification) {
	ns <- models.Notification{
		Method: models.NotificationPlaybackPaused,
	}
}

func PlaybackTrackSwitch(ns chan<- models.Notification, payload models.TrackParams) {
	ns <- models.Notification{
		Method: models.NotificationPlaybackTrackSwitch,
		Params: payload,
	}
}

func AppResumed(ns chan<- models.Notification) {
	ns <- models.Notification{
		Method: models.NotificationAppResumed,
	}
}

func TierSynced(ns chan<- models.Notification, payload models.TierSyncParams) {
	ns <- models.Notification{
		Method: models.NotificationTierSynced,
		Params: payload,
	}
}

func ShowLoginPrompt(ns chan<- models.Notification) {
	ns <- models.Notification{
		Method: models.NotificationLoginPrompt,
	}
}

func ShowTimeLimit(ns chan<- models.Notification, payload models.TimeLimitParams) {
	ns <- models.Notification{
		Method: models.NotificationTimeLimit,
		Params: payload,
	}
}

func ShowUpgrade(ns chan<- models.Notification, reason string) {
	ns <- models.Notification{
		Method: models.NotificationUpgrade,
		Params: models.UpgradeParams{Reason: reason},
	}
}

func ShowLanguageRestriction(ns chan<- models.Notification) {
	ns <- models.Notification{
		Method: models.NotificationLanguageRestriction,
	}
}

func CloseAllIntents(ns chan<- models.Notification) {
	ns <- models.Notification{
		Method: models.NotificationCloseIntents,
	}
}

func PlayerPause(ns chan<- models.Notification) {
	ns <- models.Notification{
		Method: models.NotificationPlayerPause,
	}
}

func LowTimeWarning(ns chan<- models.Notification, payload models.LowTimeWarningParams) {
	ns <- models.Notification{
		Method: models.NotificationLowTimeWarning,
		Params: payload,
	}
}

func QuotaReset(ns chan<- models.Notification) {
	ns <- models.Notification{
		Method: models.NotificationQuotaReset,
	}
}
