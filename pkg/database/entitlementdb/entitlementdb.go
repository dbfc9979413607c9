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

// Package entitlementdb stores the durable entitlement record in a local
// bolt database. Only the round-trippable subset of engine state is ever
// written here; runtime flags never touch disk.
package entitlementdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ResonaProject/resona-core/pkg/config"
	"github.com/ResonaProject/resona-core/pkg/service/entitlement"
	bolt "go.etcd.io/bbolt"
)

const (
	bucketEntitlement = "entitlement"
	keyState          = "state"
)

// Database wraps the bolt handle holding the entitlement record.
type Database struct {
	bdb *bolt.DB
}

// Open opens (creating if necessary) the entitlement database inside
// dataDir.
func Open(dataDir string) (*Database, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bolt.Open(filepath.Join(dataDir, config.EntitlementDbFile), 0o600, &bolt.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(txn *bolt.Tx) error {
		_, err := txn.CreateBucketIfNotExists([]byte(bucketEntitlement))
		return err
	})
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to close bolt database: %w", closeErr)
		}
		return nil, fmt.Errorf("failed to create entitlement bucket: %w", err)
	}

	return &Database{bdb: db}, nil
}

// Close releases the bolt handle.
func (d *Database) Close() error {
	if err := d.bdb.Close(); err != nil {
		return fmt.Errorf("failed to close bolt database: %w", err)
	}
	return nil
}

// Load reads the stored entitlement record. ok is false when no record
// has been written yet.
func (d *Database) Load() (state entitlement.State, ok bool, err error) {
	err = d.bdb.View(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(bucketEntitlement))
		if b == nil {
			return fmt.Errorf("bucket %q does not exist", bucketEntitlement)
		}

		data := b.Get([]byte(keyState))
		if data == nil {
			return nil
		}

		if err := json.Unmarshal(data, &state); err != nil {
			return fmt.Errorf("failed to unmarshal entitlement state: %w", err)
		}

		ok = true
		return nil
	})
	if err != nil {
		return entitlement.State{}, false, fmt.Errorf("failed to view bolt database: %w", err)
	}

	return state, ok, nil
}

// Save replaces the stored entitlement record.
func (d *Database) Save(state entitlement.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal entitlement state: %w", err)
	}

	err = d.bdb.Update(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(bucketEntitlement))
		if b == nil {
			return fmt.Errorf("bucket %q does not exist", bucketEntitlement)
		}
		return b.Put([]byte(keyState), data)
	})
	if err != nil {
		return fmt.Errorf("failed to update bolt database: %w", err)
	}

	return nil
}
