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
	"errors"
	"fmt"
	"runtime"

	"github.com/ResonaProject/resona-core/pkg/api/models"
	"github.com/ResonaProject/resona-core/pkg/config"
	"github.com/ResonaProject/resona-core/pkg/service/entitlement"
)

// RequestEnv carries the dependencies method handlers need.
type RequestEnv struct {
	Config *config.Instance
	Engine *entitlement.Engine
}

var ErrMethodNotFound = errors.New("method not found")

// handleRequest dispatches a JSON-RPC request to its method handler.
func handleRequest(env RequestEnv, req models.RequestObject) (any, error) {
	switch req.Method {
	case models.MethodEntitlementStatus:
		return env.Engine.Status(), nil

	case models.MethodEntitlementTiers:
		return handleTiers(env), nil

	case models.MethodEntitlementReset:
		env.Engine.ResetTracking()
		return env.Engine.Status(), nil

	case models.MethodSettings:
		return models.SettingsResponse{
			EntitlementEnabled: env.Config.EntitlementEnabled(),
			DebugLogging:       env.Config.DebugLoggingEnabled(),
			APIPort:            env.Config.APIPort(),
		}, nil

	case models.MethodSettingsUpdate:
		return handleSettingsUpdate(env, req.Params)

	case models.MethodVersion:
		return models.VersionResponse{
			Version:  config.AppVersion,
			Platform: runtime.GOOS,
			DeviceID: env.Config.DeviceID(),
		}, nil

	default:
		return nil, ErrMethodNotFound
	}
}

func handleTiers(env RequestEnv) []models.TierInfo {
	catalog := env.Engine.Catalog()
	tiers := catalog.Tiers()

	infos := make([]models.TierInfo, 0, len(tiers))
	for _, t := range tiers {
		entry := catalog.Entry(t)
		infos = append(infos, models.TierInfo{
			Name:                 string(t),
			LimitSeconds:         entry.LimitSeconds,
			ResetIntervalSeconds: int64(entry.ResetInterval.Seconds()),
			Languages:            entry.Languages,
			AllLanguages:         entry.Languages == nil,
		})
	}
	return infos
}

func handleSettingsUpdate(env RequestEnv, params json.RawMessage) (any, error) {
	var update models.SettingsUpdateParams
	if err := json.Unmarshal(params, &update); err != nil {
		return nil, fmt.Errorf("invalid settings update params: %w", err)
	}

	if update.EntitlementEnabled != nil {
		env.Config.SetEntitlementEnabled(*update.EntitlementEnabled)
	}
	if update.DebugLogging != nil {
		env.Config.SetDebugLogging(*update.DebugLogging)
	}

	if err := env.Config.Save(); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	return models.SettingsResponse{
		EntitlementEnabled: env.Config.EntitlementEnabled(),
		DebugLogging:       env.Config.DebugLoggingEnabled(),
		APIPort:            env.Config.APIPort(),
	}, nil
}
