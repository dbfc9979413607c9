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
	"fmt"
	"time"
)

// Entitlement configures playback entitlement enforcement.
type Entitlement struct {
	Enabled *bool                   `toml:"enabled,omitempty"`
	Tiers   map[string]TierOverride `toml:"tiers,omitempty"`
}

// TierOverride replaces catalog defaults for a single subscription tier.
// Zero values mean "use the built-in default" for that field.
type TierOverride struct {
	// Limit is the playback quota per reset window, e.g. "10m", "5h".
	// The literal string "unlimited" disables metering for the tier.
	Limit string `toml:"limit,omitempty"`
	// ResetInterval is how often the quota restores, e.g. "2h", "24h".
	// The literal string "none" disables the reset window.
	ResetInterval string `toml:"reset_interval,omitempty"`
	// Languages restricts track language access, e.g. ["en", "es"].
	// The single entry "all" grants access to every language.
	Languages []string `toml:"languages,omitempty,multiline"`
}

// EntitlementEnabled returns true if entitlement enforcement is enabled.
// Enforcement defaults to on.
func (c *Instance) EntitlementEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Entitlement.Enabled == nil {
		return true
	}
	return *c.vals.Entitlement.Enabled
}

// SetEntitlementEnabled enables or disables entitlement enforcement.
func (c *Instance) SetEntitlementEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Entitlement.Enabled = &enabled
}

// TierOverrides returns the per-tier catalog overrides keyed by tier name.
func (c *Instance) TierOverrides() map[string]TierOverride {
	c.mu.RLock()
	defer c.mu.RUnlock()

	overrides := make(map[string]TierOverride, len(c.vals.Entitlement.Tiers))
	for name, o := range c.vals.Entitlement.Tiers {
		overrides[name] = o
	}
	return overrides
}

// SetTierOverride sets the catalog override for a single tier. Duration
// fields are validated before applying.
func (c *Instance) SetTierOverride(tier string, override TierOverride) error {
	if override.Limit != "" && override.Limit != "unlimited" {
		if _, err := time.ParseDuration(override.Limit); err != nil {
			return fmt.Errorf("invalid tier limit duration: %w", err)
		}
	}
	if override.ResetInterval != "" && override.ResetInterval != "none" {
		if _, err := time.ParseDuration(override.ResetInterval); err != nil {
			return fmt.Errorf("invalid tier reset interval duration: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vals.Entitlement.Tiers == nil {
		c.vals.Entitlement.Tiers = make(map[string]TierOverride)
	}
	c.vals.Entitlement.Tiers[tier] = override
	return nil
}
