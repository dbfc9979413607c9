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
	"sort"
	"strings"
	"time"

	"github.com/ResonaProject/resona-core/pkg/config"
	"github.com/rs/zerolog/log"
)

// Tier is a named subscription level governing playback quota and
// language access.
type Tier string

const (
	TierGuest       Tier = "guest"
	TierFree        Tier = "free"
	TierPremium     Tier = "premium"
	TierPremiumPlus Tier = "premium_plus"
	TierEnterprise  Tier = "enterprise"
)

// Unlimited marks a tier with no playback quota.
const Unlimited int64 = -1

// DefaultLanguage is the language tracks are assumed to carry when they
// don't declare one.
const DefaultLanguage = "en"

// ParseTier normalizes a tier name. Unknown or empty values fail soft to
// Free so a bad sync payload can never grant or revoke more than the free
// quota.
func ParseTier(s string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierGuest:
		return TierGuest
	case TierFree:
		return TierFree
	case TierPremium:
		return TierPremium
	case TierPremiumPlus:
		return TierPremiumPlus
	case TierEnterprise:
		return TierEnterprise
	default:
		return TierFree
	}
}

// Entry holds the catalog values for a single tier.
type Entry struct {
	// Languages restricts track language access. Nil means all languages.
	Languages []string
	// LimitSeconds is the playback quota per reset window. Unlimited (-1)
	// disables metering.
	LimitSeconds int64
	// ResetInterval is how often the quota restores. Zero means the quota
	// never restores.
	ResetInterval time.Duration
}

// Catalog is the immutable tier table consulted by the entitlement engine.
type Catalog struct {
	entries map[Tier]Entry
}

func defaultEntries() map[Tier]Entry {
	return map[Tier]Entry{
		TierGuest: {
			LimitSeconds:  60,
			ResetInterval: 0,
			Languages:     []string{DefaultLanguage},
		},
		TierFree: {
			LimitSeconds:  600,
			ResetInterval: 2 * time.Hour,
			Languages:     []string{DefaultLanguage},
		},
		TierPremium: {
			LimitSeconds:  18000,
			ResetInterval: 24 * time.Hour,
			Languages:     nil,
		},
		TierPremiumPlus: {
			LimitSeconds:  Unlimited,
			ResetInterval: 0,
			Languages:     nil,
		},
		TierEnterprise: {
			LimitSeconds:  Unlimited,
			ResetInterval: 0,
			Languages:     nil,
		},
	}
}

// NewCatalog returns a catalog with the built-in tier table.
func NewCatalog() *Catalog {
	return &Catalog{entries: defaultEntries()}
}

// NewCatalogFromConfig returns the built-in catalog with any config
// overrides applied on top. Invalid override values are skipped with a
// warning rather than failing the load.
func NewCatalogFromConfig(cfg *config.Instance) *Catalog {
	entries := defaultEntries()

	for name, override := range cfg.TierOverrides() {
		tier := Tier(strings.ToLower(strings.TrimSpace(name)))
		entry, ok := entries[tier]
		if !ok {
			log.Warn().Str("tier", name).Msg("entitlement: unknown tier in config, skipping override")
			continue
		}

		if override.Limit == "unlimited" {
			entry.LimitSeconds = Unlimited
		} else if override.Limit != "" {
			d, err := time.ParseDuration(override.Limit)
			if err != nil || d < 0 {
				log.Warn().Str("tier", name).Str("limit", override.Limit).
					Msg("entitlement: invalid tier limit in config, using default")
			} else {
				entry.LimitSeconds = int64(d / time.Second)
			}
		}

		if override.ResetInterval == "none" {
			entry.ResetInterval = 0
		} else if override.ResetInterval != "" {
			d, err := time.ParseDuration(override.ResetInterval)
			if err != nil || d < 0 {
				log.Warn().Str("tier", name).Str("reset_interval", override.ResetInterval).
					Msg("entitlement: invalid tier reset interval in config, using default")
			} else {
				entry.ResetInterval = d
			}
		}

		if len(override.Languages) > 0 {
			if len(override.Languages) == 1 && strings.EqualFold(override.Languages[0], "all") {
				entry.Languages = nil
			} else {
				langs := make([]string, 0, len(override.Languages))
				for _, l := range override.Languages {
					l = strings.ToLower(strings.TrimSpace(l))
					if l != "" {
						langs = append(langs, l)
					}
				}
				entry.Languages = langs
			}
		}

		entries[tier] = entry
	}

	return &Catalog{entries: entries}
}

// entry looks up the catalog values for a tier, failing soft to Free for
// any tier not present in the table.
func (c *Catalog) entry(tier Tier) Entry {
	if e, ok := c.entries[tier]; ok {
		return e
	}
	return c.entries[TierFree]
}

// Limit returns the playback quota in seconds for a tier, or Unlimited.
func (c *Catalog) Limit(tier Tier) int64 {
	return c.entry(tier).LimitSeconds
}

// ResetInterval returns how often the tier's quota restores. Zero means
// the quota never restores.
func (c *Catalog) ResetInterval(tier Tier) time.Duration {
	return c.entry(tier).ResetInterval
}

// AllowsLanguage returns true if the tier's language access includes the
// given language code. Empty codes are treated as the default language.
func (c *Catalog) AllowsLanguage(tier Tier, language string) bool {
	langs := c.entry(tier).Languages
	if langs == nil {
		return true
	}

	if language == "" {
		language = DefaultLanguage
	}
	language = strings.ToLower(strings.TrimSpace(language))

	for _, l := range langs {
		if l == language {
			return true
		}
	}
	return false
}

// Tiers returns the catalog's tier names in a stable order.
func (c *Catalog) Tiers() []Tier {
	tiers := make([]Tier, 0, len(c.entries))
	for t := range c.entries {
		tiers = append(tiers, t)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })
	return tiers
}

// Entry returns a copy of the catalog values for a tier.
func (c *Catalog) Entry(tier Tier) Entry {
	e := c.entry(tier)
	if e.Languages != nil {
		langs := make([]string, len(e.Languages))
		copy(langs, e.Languages)
		e.Languages = langs
	}
	return e
}
