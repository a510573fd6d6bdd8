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

// Package wire implements the mesh's fixed-layout authenticated frame
// (§4.3): big-endian encoding, no self-describing framing beyond the
// header, a signature covering every header byte (with the signature
// field itself zeroed) plus the payload, and fragmentation/reassembly
// for messages larger than a link's MTU.
package wire

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"fmt"

	meshcrypto "github.com/Treystu/SC-sub006/crypto"
)

// Type is the frame's message kind (§3 "Types").
type Type uint8

const (
	TypeText          Type = 0
	TypeFileMetadata  Type = 1
	TypeFileChunk     Type = 2
	TypeVoice         Type = 3
	TypeControl       Type = 4
	TypePeerDiscovery Type = 5
	TypeKeyExchange   Type = 6
)

func (t Type) String() string {
	switch t {
	case TypeText:
		return "TEXT"
	case TypeFileMetadata:
		return "FILE_METADATA"
	case TypeFileChunk:
		return "FILE_CHUNK"
	case TypeVoice:
		return "VOICE"
	case TypeControl:
		return "CONTROL"
	case TypePeerDiscovery:
		return "PEER_DISCOVERY"
	case TypeKeyExchange:
		return "KEY_EXCHANGE"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Priority returns the scheduling priority class for this type. Lower
// is more urgent: CONTROL > VOICE > TEXT > FILE_* (§3 "Types").
func (t Type) Priority() int {
	switch t {
	case TypeControl:
		return 0
	case TypeVoice:
		return 1
	case TypeText, TypePeerDiscovery, TypeKeyExchange:
		return 2
	case TypeFileMetadata, TypeFileChunk:
		return 3
	default:
		return 3
	}
}

const (
	Version1 = 1

	SenderIDSize  = meshcrypto.PublicKeySize // 32
	MessageIDSize = 16
	SignatureSize = meshcrypto.SignatureSize // 64

	// HeaderSize is the fixed byte length of every frame's header,
	// before the variable-length payload: 1+1+1+1+8+32+16+2+2+4+64.
	HeaderSize = 4 + 8 + SenderIDSize + MessageIDSize + 2 + 2 + 4 + SignatureSize

	// MaxTTL bounds the initial TTL a sender may set (§3 "ttl").
	MaxTTL = 16

	// DefaultMTU and MinMTU bound transport-advertised fragment sizes (§4.3).
	DefaultMTU = 64 * 1024
	MinMTU     = 512
)

// Header offsets within the fixed-layout frame header.
const (
	offVersion        = 0
	offType           = 1
	offTTL            = 2
	offFlags          = 3
	offTimestamp      = 4
	offSenderID       = 12
	offMessageID      = offSenderID + SenderIDSize
	offFragmentIndex  = offMessageID + MessageIDSize
	offFragmentCount  = offFragmentIndex + 2
	offPayloadLength  = offFragmentCount + 2
	offSignature      = offPayloadLength + 4
	headerSizeChecked = offSignature + SignatureSize
)

func init() {
	if headerSizeChecked != HeaderSize {
		panic("wire: header offset arithmetic does not match HeaderSize")
	}
}

// DecodeErrorKind enumerates the frame decode failure modes named in
// §4.3: "Decoding fails with one of: TooShort, BadVersion, BadType,
// BadLength, BadSignature."
type DecodeErrorKind int

const (
	TooShort DecodeErrorKind = iota
	BadVersion
	BadType
	BadLength
	BadSignature
)

func (k DecodeErrorKind) String() string {
	switch k {
	case TooShort:
		return "TooShort"
	case BadVersion:
		return "BadVersion"
	case BadType:
		return "BadType"
	case BadLength:
		return "BadLength"
	case BadSignature:
		return "BadSignature"
	default:
		return "Unknown"
	}
}

// DecodeError wraps a DecodeErrorKind with context for logging.
type DecodeError struct {
	Kind DecodeErrorKind
	Msg  string
}

func (e *DecodeError) Error() string { return fmt.Sprintf("wire: %s: %s", e.Kind, e.Msg) }

func decodeErr(kind DecodeErrorKind, msg string) error {
	return &DecodeError{Kind: kind, Msg: msg}
}

// ErrTTLExpired is a sentinel distinct from decode errors: the frame
// parsed and verified fine, but its TTL reached zero before relaying.
var ErrTTLExpired = errors.New("wire: ttl expired")

// Frame is a fully decoded, signature-verified mesh frame.
type Frame struct {
	Version        uint8
	Type           Type
	TTL            uint8
	Flags          uint8
	TimestampMS    uint64
	SenderID       [SenderIDSize]byte
	MessageID      [MessageIDSize]byte
	FragmentIndex  uint16
	FragmentCount  uint16
	Signature      [SignatureSize]byte
	Payload        []byte
}

// NewFrame builds a Frame with the fields a sender controls; TimestampMS
// should be supplied by the caller (engine) since this package may not
// call time.Now() to stay a pure encode/decode/sign boundary.
func NewFrame(typ Type, ttl uint8, flags uint8, timestampMS uint64, senderID [SenderIDSize]byte, messageID [MessageIDSize]byte, fragmentIndex, fragmentCount uint16, payload []byte) *Frame {
	return &Frame{
		Version:       Version1,
		Type:          typ,
		TTL:           ttl,
		Flags:         flags,
		TimestampMS:   timestampMS,
		SenderID:      senderID,
		MessageID:     messageID,
		FragmentIndex: fragmentIndex,
		FragmentCount: fragmentCount,
		Payload:       payload,
	}
}

// headerBytesZeroSig renders the fixed-size header with the signature field
// zeroed, the exact bytes the signature domain covers alongside the
// payload (§4.3 "Signature domain").
func (f *Frame) headerBytesZeroSig() []byte {
	buf := make([]byte, HeaderSize)
	buf[offVersion] = f.Version
	buf[offType] = uint8(f.Type)
	buf[offTTL] = f.TTL
	buf[offFlags] = f.Flags
	binary.BigEndian.PutUint64(buf[offTimestamp:], f.TimestampMS)
	copy(buf[offSenderID:], f.SenderID[:])
	copy(buf[offMessageID:], f.MessageID[:])
	binary.BigEndian.PutUint16(buf[offFragmentIndex:], f.FragmentIndex)
	binary.BigEndian.PutUint16(buf[offFragmentCount:], f.FragmentCount)
	binary.BigEndian.PutUint32(buf[offPayloadLength:], uint32(len(f.Payload)))
	// signature bytes stay zero
	return buf
}

// signingInput returns the exact bytes Sign/Verify operate over:
// header-with-signature-zeroed followed by the payload.
func (f *Frame) signingInput() []byte {
	header := f.headerBytesZeroSig()
	out := make([]byte, 0, len(header)+len(f.Payload))
	out = append(out, header...)
	out = append(out, f.Payload...)
	return out
}

// Sign computes and stores the frame's signature over the signing
// domain using the sender's long-term private key.
func (f *Frame) Sign(priv ed25519.PrivateKey) error {
	sig, err := meshcrypto.Sign(priv, f.signingInput())
	if err != nil {
		return err
	}
	copy(f.Signature[:], sig)
	return nil
}

// Verify checks the frame's signature against its sender-id public key.
func (f *Frame) Verify() bool {
	return meshcrypto.Verify(ed25519.PublicKey(f.SenderID[:]), f.signingInput(), f.Signature[:])
}

// Encode renders the frame as wire bytes: header (with the real
// signature filled in) followed by the payload.
func (f *Frame) Encode() []byte {
	out := make([]byte, HeaderSize+len(f.Payload))
	header := f.headerBytesZeroSig()
	copy(out, header)
	copy(out[offSignature:], f.Signature[:])
	copy(out[HeaderSize:], f.Payload)
	return out
}

// Decode parses wire bytes into a Frame, checking structural validity
// and the signature, in the order §4.3 names: TooShort, BadVersion,
// BadType, BadLength, BadSignature. It does not check TTL; callers
// consult TTLExpired() after a successful Decode.
func Decode(data []byte) (*Frame, error) {
	if len(data) < HeaderSize {
		return nil, decodeErr(TooShort, "shorter than fixed header")
	}

	f := &Frame{}
	f.Version = data[offVersion]
	if f.Version != Version1 {
		return nil, decodeErr(BadVersion, fmt.Sprintf("unsupported version %d", f.Version))
	}

	typ := Type(data[offType])
	if typ > TypeKeyExchange {
		return nil, decodeErr(BadType, fmt.Sprintf("unknown type %d", typ))
	}
	f.Type = typ

	f.TTL = data[offTTL]
	f.Flags = data[offFlags]
	f.TimestampMS = binary.BigEndian.Uint64(data[offTimestamp:])
	copy(f.SenderID[:], data[offSenderID:offSenderID+SenderIDSize])
	copy(f.MessageID[:], data[offMessageID:offMessageID+MessageIDSize])
	f.FragmentIndex = binary.BigEndian.Uint16(data[offFragmentIndex:])
	f.FragmentCount = binary.BigEndian.Uint16(data[offFragmentCount:])
	payloadLen := binary.BigEndian.Uint32(data[offPayloadLength:])
	copy(f.Signature[:], data[offSignature:offSignature+SignatureSize])

	if uint64(len(data)) != uint64(HeaderSize)+uint64(payloadLen) {
		return nil, decodeErr(BadLength, "payload-length field does not match actual data length")
	}
	if f.FragmentCount == 0 || f.FragmentIndex >= f.FragmentCount {
		return nil, decodeErr(BadLength, "fragment-index must be < fragment-count")
	}

	f.Payload = append([]byte(nil), data[HeaderSize:]...)

	if !f.Verify() {
		return nil, decodeErr(BadSignature, "signature does not match sender-id and payload")
	}

	return f, nil
}

// TTLExpired reports whether the frame's TTL has reached zero and must
// be dropped rather than relayed further (§4.4 "TTL decrement").
func (f *Frame) TTLExpired() bool { return f.TTL == 0 }

// Decremented returns a copy of the frame with TTL reduced by one, for
// re-emission to other peers (§2 "Control flow").
func (f *Frame) Decremented() *Frame {
	cp := *f
	if cp.TTL > 0 {
		cp.TTL--
	}
	return &cp
}
