// Copyright 2025 The go-dpt Authors
// This file is part of the go-dpt library.
//
// The go-dpt library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-dpt library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-dpt library. If not, see <http://www.gnu.org/licenses/>.

package account

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/crypto"
)

// PublicKeyLength is the byte length of an uncompressed secp256k1 public
// key without the 0x04 tag.
const PublicKeyLength = 64

var (
	// ErrInvalidPrivateKey is returned for keys outside the secp256k1 group.
	ErrInvalidPrivateKey = errors.New("invalid secp256k1 private key")

	// ErrInvalidPublicKey is returned for byte strings that do not encode a
	// point on the secp256k1 curve.
	ErrInvalidPublicKey = errors.New("invalid secp256k1 public key")
)

// IsValidPrivate reports whether priv is a 32-byte scalar within the
// secp256k1 group order, excluding zero.
func IsValidPrivate(priv []byte) bool {
	_, err := crypto.ToECDSA(priv)
	return err == nil
}

// IsValidPublic reports whether pub encodes a point on the secp256k1 curve.
// A 64-byte input is interpreted as an uncompressed key without the 0x04
// tag. Other lengths are rejected unless sanitize is set, in which case any
// SEC-1 encoding (compressed, uncompressed or hybrid) is accepted.
func IsValidPublic(pub []byte, sanitize bool) bool {
	if len(pub) == PublicKeyLength {
		_, err := crypto.UnmarshalPubkey(append([]byte{0x04}, pub...))
		return err == nil
	}
	if !sanitize {
		return false
	}
	_, err := secp256k1.ParsePubKey(pub)
	return err == nil
}

// PubToAddress derives the 20-byte address of a public key: the low 20
// bytes of keccak256 over the 64-byte tag-less form. With sanitize set,
// inputs in other SEC-1 encodings are normalized first.
func PubToAddress(pub []byte, sanitize bool) ([]byte, error) {
	if len(pub) != PublicKeyLength {
		if !sanitize {
			return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPublicKey, PublicKeyLength, len(pub))
		}
		normalized, err := ImportPublic(pub)
		if err != nil {
			return nil, err
		}
		pub = normalized
	} else if !IsValidPublic(pub, false) {
		return nil, ErrInvalidPublicKey
	}
	return crypto.Keccak256(pub)[12:], nil
}

// PrivateToPublic derives the uncompressed public key of priv, minus the
// 0x04 tag.
func PrivateToPublic(priv []byte) ([]byte, error) {
	key, err := crypto.ToECDSA(priv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return crypto.FromECDSAPub(&key.PublicKey)[1:], nil
}

// PrivateToAddress derives the address belonging to priv.
func PrivateToAddress(priv []byte) ([]byte, error) {
	pub, err := PrivateToPublic(priv)
	if err != nil {
		return nil, err
	}
	return PubToAddress(pub, false)
}

// ImportPublic normalizes a public key to the 64-byte tag-less form,
// parsing compressed and uncompressed SEC-1 encodings as needed.
func ImportPublic(pub []byte) ([]byte, error) {
	if len(pub) == PublicKeyLength {
		return pub, nil
	}
	key, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return key.SerializeUncompressed()[1:], nil
}
