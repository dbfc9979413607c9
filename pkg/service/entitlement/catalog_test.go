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
	"testing"
	"time"

	"github.com/ResonaProject/resona-core/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestConfig creates a config instance with the given values for testing
func newTestConfig(t *testing.T, vals *config.Values) *config.Instance {
	t.Helper()

	cfg, err := config.NewConfig(t.TempDir(), *vals)
	require.NoError(t, err)

	return cfg
}

func TestParseTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  Tier
	}{
		{name: "guest", input: "guest", want: TierGuest},
		{name: "free", input: "free", want: TierFree},
		{name: "premium", input: "premium", want: TierPremium},
		{name: "premium plus", input: "premium_plus", want: TierPremiumPlus},
		{name: "enterprise", input: "enterprise", want: TierEnterprise},
		{name: "mixed case", input: "Premium", want: TierPremium},
		{name: "whitespace", input: "  free  ", want: TierFree},
		{name: "unknown fails soft to free", input: "platinum", want: TierFree},
		{name: "empty fails soft to free", input: "", want: TierFree},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseTier(tt.input))
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c := NewCatalog()

	tests := []struct {
		name         string
		tier         Tier
		wantLimit    int64
		wantInterval time.Duration
		wantAllLangs bool
	}{
		{name: "guest", tier: TierGuest, wantLimit: 60, wantInterval: 0, wantAllLangs: false},
		{name: "free", tier: TierFree, wantLimit: 600, wantInterval: 2 * time.Hour, wantAllLangs: false},
		{name: "premium", tier: TierPremium, wantLimit: 18000, wantInterval: 24 * time.Hour, wantAllLangs: true},
		{name: "premium plus", tier: TierPremiumPlus, wantLimit: Unlimited, wantInterval: 0, wantAllLangs: true},
		{name: "enterprise", tier: TierEnterprise, wantLimit: Unlimited, wantInterval: 0, wantAllLangs: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.wantLimit, c.Limit(tt.tier))
			assert.Equal(t, tt.wantInterval, c.ResetInterval(tt.tier))
			assert.Equal(t, tt.wantAllLangs, c.AllowsLanguage(tt.tier, "ja"))
			// Every tier can play the default language.
			assert.True(t, c.AllowsLanguage(tt.tier, "en"))
		})
	}
}

func TestCatalogUnknownTierFailsSoftToFree(t *testing.T) {
	t.Parallel()

	c := NewCatalog()

	assert.Equal(t, int64(600), c.Limit(Tier("platinum")))
	assert.Equal(t, 2*time.Hour, c.ResetInterval(Tier("platinum")))
	assert.False(t, c.AllowsLanguage(Tier("platinum"), "fr"))
}

func TestCatalogAllowsLanguage(t *testing.T) {
	t.Parallel()

	c := NewCatalog()

	// Empty language means the default language.
	assert.True(t, c.AllowsLanguage(TierGuest, ""))
	assert.True(t, c.AllowsLanguage(TierFree, "EN"))
	assert.False(t, c.AllowsLanguage(TierFree, "es"))
	assert.True(t, c.AllowsLanguage(TierPremium, "es"))
}

func TestCatalogTiersStableOrder(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	want := []Tier{TierEnterprise, TierFree, TierGuest, TierPremium, TierPremiumPlus}
	assert.Equal(t, want, c.Tiers())
}

func TestNewCatalogFromConfig(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, &config.Values{
		ConfigSchema: config.SchemaVersion,
		Entitlement: config.Entitlement{
			Tiers: map[string]config.TierOverride{
				"free": {
					Limit:         "20m",
					ResetInterval: "4h",
					Languages:     []string{"en", "ES"},
				},
				"premium": {
					Limit: "unlimited",
				},
				"guest": {
					ResetInterval: "none",
					Languages:     []string{"all"},
				},
			},
		},
	})

	c := NewCatalogFromConfig(cfg)

	assert.Equal(t, int64(1200), c.Limit(TierFree))
	assert.Equal(t, 4*time.Hour, c.ResetInterval(TierFree))
	assert.True(t, c.AllowsLanguage(TierFree, "es"))
	assert.False(t, c.AllowsLanguage(TierFree, "fr"))

	assert.Equal(t, Unlimited, c.Limit(TierPremium))
	// Unoverridden fields keep their defaults.
	assert.Equal(t, 24*time.Hour, c.ResetInterval(TierPremium))

	assert.Zero(t, c.ResetInterval(TierGuest))
	assert.True(t, c.AllowsLanguage(TierGuest, "ko"))
	assert.Equal(t, int64(60), c.Limit(TierGuest))
}

func TestNewCatalogFromConfigInvalidValues(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, &config.Values{
		ConfigSchema: config.SchemaVersion,
		Entitlement: config.Entitlement{
			Tiers: map[string]config.TierOverride{
				"free": {
					Limit:         "not-a-duration",
					ResetInterval: "-5h",
				},
				"platinum": {
					Limit: "1h",
				},
			},
		},
	})

	c := NewCatalogFromConfig(cfg)

	// Bad values and unknown tiers are skipped, defaults kept.
	assert.Equal(t, int64(600), c.Limit(TierFree))
	assert.Equal(t, 2*time.Hour, c.ResetInterval(TierFree))
}

func TestCatalogEntryReturnsCopy(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	entry := c.Entry(TierFree)
	require.NotEmpty(t, entry.Languages)
	entry.Languages[0] = "zz"

	assert.True(t, c.AllowsLanguage(TierFree, "en"))
}
