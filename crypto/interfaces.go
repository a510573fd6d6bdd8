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

package crypto

// Signer produces and checks the signatures that authenticate every
// frame on the wire (§4.1 "sign"/"verify"). It is an interface, not a
// concrete function pair, so a hybrid or post-quantum signature scheme
// can be swapped in later without touching session or wire (§9 Open
// Question, see SPEC_FULL.md §4.1.a).
type Signer interface {
	PublicKey() []byte
	Sign(message []byte) ([]byte, error)
	Verify(pub, message, signature []byte) bool
}

// Agreer produces the shared secret two peers use to derive session
// keys (§4.1 "agree"). Like Signer, this is an interface boundary so a
// KEM-based or hybrid classical+PQ scheme can replace plain X25519
// ECDH without changing callers in session or wire.
type Agreer interface {
	PublicKey() []byte
	Agree(remotePub []byte) ([]byte, error)
}
