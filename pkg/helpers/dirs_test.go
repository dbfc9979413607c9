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

package helpers

import (
	"path/filepath"
	"testing"

	"github.com/ResonaProject/resona-core/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestServiceDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"config": ConfigDir(),
		"data":   DataDir(),
		"log":    LogDir(),
	} {
		assert.True(t, filepath.IsAbs(dir), "%s dir should be absolute: %s", name, dir)
		assert.Equal(t, config.AppName, filepath.Base(dir), "%s dir should end in app name", name)
	}
}
