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

package wire

import (
	"encoding/hex"

	meshcrypto "github.com/Treystu/SC-sub006/crypto"
)

// ContentID identifies a blob indirectly by the hash of its bytes
// (§4.3 "Content addressing"): content_id = hash(content).
type ContentID [meshcrypto.HashSize]byte

// ContentIDOf computes the content_id for a blob.
func ContentIDOf(content []byte) ContentID {
	return ContentID(meshcrypto.Hash(content))
}

func (c ContentID) String() string { return hex.EncodeToString(c[:]) }

// ParseContentID decodes a hex-encoded content_id, as read back from
// the blob store or a FILE_METADATA payload.
func ParseContentID(s string) (ContentID, error) {
	var c ContentID
	b, err := hex.DecodeString(s)
	if err != nil {
		return c, err
	}
	if len(b) != len(c) {
		return c, &DecodeError{Kind: BadLength, Msg: "content_id must be 32 bytes"}
	}
	copy(c[:], b)
	return c, nil
}
