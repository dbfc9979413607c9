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

package config

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service configures the local API service.
type Service struct {
	DeviceID string `toml:"device_id,omitempty"`
	APIPort  int    `toml:"api_port,omitempty"`
}

// APIPort returns the port the local API listens on.
func (c *Instance) APIPort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Service.APIPort == 0 {
		return DefaultAPIPort
	}
	return c.vals.Service.APIPort
}

// DeviceID returns this install's unique ID, generating and persisting one
// on first use.
func (c *Instance) DeviceID() string {
	c.mu.RLock()
	id := c.vals.Service.DeviceID
	c.mu.RUnlock()
	if id != "" {
		return id
	}

	newID := uuid.New().String()
	c.mu.Lock()
	c.vals.Service.DeviceID = newID
	c.mu.Unlock()
	log.Info().Msgf("generated new device id: %s", newID)

	if err := c.Save(); err != nil {
		log.Error().Err(err).Msg("failed to save config with new device id")
	}

	return newID
}
