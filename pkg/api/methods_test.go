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

package api

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/ResonaProject/resona-core/pkg/api/models"
	"github.com/ResonaProject/resona-core/pkg/config"
	"github.com/ResonaProject/resona-core/pkg/service/entitlement"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnv(t *testing.T) RequestEnv {
	t.Helper()

	cfg, err := config.NewConfig(t.TempDir(), config.BaseDefaults)
	require.NoError(t, err)

	engine := entitlement.NewEngine(cfg, nil, nil, clockwork.NewFakeClock())
	t.Cleanup(engine.Stop)

	return RequestEnv{Config: cfg, Engine: engine}
}

func request(method string, params any) models.RequestObject {
	id := uuid.New()
	req := models.RequestObject{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  method,
	}
	if params != nil {
		data, _ := json.Marshal(params)
		req.Params = data
	}
	return req
}

func TestHandleRequestVersion(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	result, err := handleRequest(env, request(models.MethodVersion, nil))
	require.NoError(t, err)

	resp, ok := result.(models.VersionResponse)
	require.True(t, ok)
	assert.Equal(t, config.AppVersion, resp.Version)
	assert.Equal(t, runtime.GOOS, resp.Platform)
	assert.NotEmpty(t, resp.DeviceID)
	// The device ID is stable across calls.
	assert.Equal(t, resp.DeviceID, env.Config.DeviceID())
}

func TestHandleRequestEntitlementStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	result, err := handleRequest(env, request(models.MethodEntitlementStatus, nil))
	require.NoError(t, err)

	status, ok := result.(models.EntitlementStatusResponse)
	require.True(t, ok)
	// A fresh install is a guest with the full quota available.
	assert.Equal(t, "guest", status.Tier)
	assert.Zero(t, status.UsedSeconds)
	assert.Equal(t, int64(60), status.LimitSeconds)
	assert.Equal(t, int64(60), status.RemainingSeconds)
	assert.False(t, status.Blocked)
	assert.False(t, status.Tracking)
}

func TestHandleRequestEntitlementTiers(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	result, err := handleRequest(env, request(models.MethodEntitlementTiers, nil))
	require.NoError(t, err)

	tiers, ok := result.([]models.TierInfo)
	require.True(t, ok)
	require.Len(t, tiers, 5)

	byName := make(map[string]models.TierInfo, len(tiers))
	for _, ti := range tiers {
		byName[ti.Name] = ti
	}

	free := byName["free"]
	assert.Equal(t, int64(600), free.LimitSeconds)
	assert.Equal(t, int64(7200), free.ResetIntervalSeconds)
	assert.Equal(t, []string{"en"}, free.Languages)
	assert.False(t, free.AllLanguages)

	enterprise := byName["enterprise"]
	assert.Equal(t, entitlement.Unlimited, enterprise.LimitSeconds)
	assert.True(t, enterprise.AllLanguages)
}

func TestHandleRequestEntitlementReset(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	result, err := handleRequest(env, request(models.MethodEntitlementReset, nil))
	require.NoError(t, err)

	status, ok := result.(models.EntitlementStatusResponse)
	require.True(t, ok)
	assert.Zero(t, status.UsedSeconds)
	assert.False(t, status.Blocked)
}

func TestHandleRequestSettingsUpdate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	enabled := false
	debug := true
	result, err := handleRequest(env, request(models.MethodSettingsUpdate, models.SettingsUpdateParams{
		EntitlementEnabled: &enabled,
		DebugLogging:       &debug,
	}))
	require.NoError(t, err)

	resp, ok := result.(models.SettingsResponse)
	require.True(t, ok)
	assert.False(t, resp.EntitlementEnabled)
	assert.True(t, resp.DebugLogging)

	// Partial update: omitted fields stay put.
	result, err = handleRequest(env, request(models.MethodSettingsUpdate, models.SettingsUpdateParams{}))
	require.NoError(t, err)

	resp, ok = result.(models.SettingsResponse)
	require.True(t, ok)
	assert.False(t, resp.EntitlementEnabled)
	assert.True(t, resp.DebugLogging)
}

func TestHandleRequestUnknownMethod(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	_, err := handleRequest(env, request("entitlement.destroy", nil))
	require.ErrorIs(t, err, ErrMethodNotFound)
}

func TestForwardClientEvent(t *testing.T) {
	t.Parallel()

	t.Run("playback started with track params", func(t *testing.T) {
		t.Parallel()

		ns := make(chan models.Notification, 1)
		raw := json.RawMessage(`{"id":"track-1","language":"en"}`)

		require.True(t, forwardClientEvent(ns, models.NotificationPlaybackStarted, raw))

		notif := <-ns
		assert.Equal(t, models.NotificationPlaybackStarted, notif.Method)
		params, ok := notif.Params.(models.TrackParams)
		require.True(t, ok)
		assert.Equal(t, "track-1", params.ID)
		assert.Equal(t, "en", params.Language)
	})

	t.Run("paused carries no params", func(t *testing.T) {
		t.Parallel()

		ns := make(chan models.Notification, 1)
		require.True(t, forwardClientEvent(ns, models.NotificationPlaybackPaused, nil))

		notif := <-ns
		assert.Equal(t, models.NotificationPlaybackPaused, notif.Method)
		assert.Nil(t, notif.Params)
	})

	t.Run("tier synced", func(t *testing.T) {
		t.Parallel()

		ns := make(chan models.Notification, 1)
		raw := json.RawMessage(`{"tier":"premium","isAuthenticated":true}`)

		require.True(t, forwardClientEvent(ns, models.NotificationTierSynced, raw))

		notif := <-ns
		params, ok := notif.Params.(models.TierSyncParams)
		require.True(t, ok)
		assert.True(t, params.IsAuthenticated)
		assert.Equal(t, "premium", params.Tier)
	})

	t.Run("malformed params are rejected", func(t *testing.T) {
		t.Parallel()

		ns := make(chan models.Notification, 1)
		raw := json.RawMessage(`{"id":42}`)

		assert.False(t, forwardClientEvent(ns, models.NotificationPlaybackStarted, raw))
		assert.Empty(t, ns)
	})

	t.Run("clients may not publish intents", func(t *testing.T) {
		t.Parallel()

		ns := make(chan models.Notification, 1)
		assert.False(t, forwardClientEvent(ns, models.NotificationLoginPrompt, nil))
		assert.Empty(t, ns)
	})
}

func TestMaybeUUID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uuid.Nil, maybeUUID(models.RequestObject{}))

	id := uuid.New()
	assert.Equal(t, id, maybeUUID(models.RequestObject{ID: &id}))
}
