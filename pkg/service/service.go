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

// Package service wires the entitlement engine, notification broker and
// local API together at the application boundary. No component depends on
// another's internals; everything is connected here by injection.
package service

import (
	"context"
	"fmt"

	"github.com/ResonaProject/resona-core/pkg/api"
	"github.com/ResonaProject/resona-core/pkg/api/models"
	"github.com/ResonaProject/resona-core/pkg/config"
	"github.com/ResonaProject/resona-core/pkg/database/entitlementdb"
	"github.com/ResonaProject/resona-core/pkg/service/broker"
	"github.com/ResonaProject/resona-core/pkg/service/entitlement"
	"github.com/rs/zerolog/log"
)

// notificationBuffer is the size of the service notification channel and
// of each broker subscription used by the API.
const notificationBuffer = 100

// Start brings the service up and returns a stop function.
func Start(cfg *config.Instance, dataDir string) (func() error, error) {
	ctx, cancel := context.WithCancel(context.Background())

	db, err := entitlementdb.Open(dataDir)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open entitlement database: %w", err)
	}

	ns := make(chan models.Notification, notificationBuffer)
	br := broker.NewBroker(ctx, ns)
	br.Start()

	catalog := entitlement.NewCatalogFromConfig(cfg)
	engine := entitlement.NewEngine(cfg, catalog, db, nil)
	engine.Start(br, ns)

	// The API gets its own subscription so intents reach UI clients even
	// while the engine is busy.
	apiRecv, apiSubID := br.Subscribe(notificationBuffer)
	go func() {
		if err := api.Start(ctx, cfg, engine, ns, apiRecv); err != nil {
			log.Error().Err(err).Msg("service: api server exited with error")
		}
	}()

	log.Info().Int("port", cfg.APIPort()).Msg("service started")

	stop := func() error {
		cancel()
		engine.Stop()
		br.Unsubscribe(apiSubID)
		br.Stop()
		if err := db.Close(); err != nil {
			return fmt.Errorf("failed to close entitlement database: %w", err)
		}
		log.Info().Msg("service stopped")
		return nil
	}

	return stop, nil
}
