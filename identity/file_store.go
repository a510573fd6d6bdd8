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

package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/argon2"

	meshcrypto "github.com/Treystu/SC-sub006/crypto"
	"github.com/Treystu/SC-sub006/crypto/keys"
)

const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 2
	fileVersion   = 1
)

// onDiskIdentity is the encrypted-at-rest envelope written to path.
// Only Ciphertext covers the private seed; everything else is metadata
// needed to decrypt and is safe to keep in the clear.
type onDiskIdentity struct {
	Version     int       `json:"version"`
	Salt        []byte    `json:"salt"`
	Nonce       []byte    `json:"nonce"`
	Ciphertext  []byte    `json:"ciphertext"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
	RotatedFrom string    `json:"rotated_from,omitempty"`
}

// FileStore persists the local identity to a single file, encrypting
// the Ed25519 seed with a key derived from a passphrase via Argon2id
// (§3 "persisted encrypted-at-rest").
type FileStore struct {
	path       string
	passphrase []byte
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a Store backed by path, encrypted under passphrase.
func NewFileStore(path string, passphrase []byte) *FileStore {
	return &FileStore{path: path, passphrase: passphrase}
}

func (s *FileStore) Load(ctx context.Context) (*Identity, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("identity: read %s: %w", s.path, err)
	}

	var disk onDiskIdentity
	if err := json.Unmarshal(raw, &disk); err != nil {
		return nil, fmt.Errorf("identity: decode %s: %w", s.path, err)
	}
	if disk.Version != fileVersion {
		return nil, fmt.Errorf("identity: unsupported file version %d", disk.Version)
	}

	key := s.deriveKey(disk.Salt)
	seed, err := meshcrypto.AEADOpen(key, disk.Nonce, []byte(s.path), disk.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("identity: decrypt %s: %w", s.path, err)
	}

	kp, err := keys.Ed25519KeyPairFromSeed(seed)
	if err != nil {
		return nil, err
	}

	return &Identity{
		KeyPair:     kp,
		Fingerprint: disk.Fingerprint,
		CreatedAt:   disk.CreatedAt,
		RotatedFrom: disk.RotatedFrom,
	}, nil
}

func (s *FileStore) Save(ctx context.Context, id *Identity) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	salt, err := meshcrypto.Random(16)
	if err != nil {
		return err
	}
	nonce, err := meshcrypto.Random(meshcrypto.AEADNonceSize)
	if err != nil {
		return err
	}

	key := s.deriveKey(salt)
	ciphertext, err := meshcrypto.AEADSeal(key, nonce, []byte(s.path), id.KeyPair.Seed())
	if err != nil {
		return err
	}

	disk := onDiskIdentity{
		Version:     fileVersion,
		Salt:        salt,
		Nonce:       nonce,
		Ciphertext:  ciphertext,
		Fingerprint: id.Fingerprint,
		CreatedAt:   id.CreatedAt,
		RotatedFrom: id.RotatedFrom,
	}
	out, err := json.Marshal(disk)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("identity: mkdir for %s: %w", s.path, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("identity: write %s: %w", tmp, err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) deriveKey(salt []byte) []byte {
	return argon2.IDKey(s.passphrase, salt, argon2Time, argon2Memory, argon2Threads, meshcrypto.AEADKeySize)
}
