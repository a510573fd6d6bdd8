// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/Treystu/SC-sub006/config"
	"github.com/Treystu/SC-sub006/identity"
)

func loadConfig() (*config.Config, error) {
	return config.Load(config.LoaderOptions{ConfigDir: flagConfigDir})
}

// openIdentityStore resolves the passphrase from --passphrase or
// MESH_IDENTITY_PASSPHRASE and opens the on-disk encrypted identity
// store at --identity.
func openIdentityStore() (identity.Store, error) {
	pass := flagPassphrase
	if pass == "" {
		pass = os.Getenv("MESH_IDENTITY_PASSPHRASE")
	}
	if pass == "" {
		return nil, fmt.Errorf("meshd: no identity passphrase given (--passphrase or MESH_IDENTITY_PASSPHRASE)")
	}
	return identity.NewFileStore(flagIdentity, []byte(pass)), nil
}
