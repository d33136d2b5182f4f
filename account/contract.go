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
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// ErrInvalidLength is returned when a fixed-size input has the wrong length.
var ErrInvalidLength = errors.New("invalid length")

// GenerateAddress derives the address of a contract created with CREATE:
// keccak256(rlp([sender, nonce]))[12:]. The nonce is an unpadded big-endian
// integer; a zero nonce encodes as the empty byte string, which yields a
// different address than nonce one.
func GenerateAddress(from, nonce []byte) ([]byte, error) {
	if len(from) != common.AddressLength {
		return nil, fmt.Errorf("%w: sender must be %d bytes, got %d", ErrInvalidLength, common.AddressLength, len(from))
	}
	data, err := rlp.EncodeToBytes([]interface{}{from, new(big.Int).SetBytes(nonce)})
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256(data)[12:], nil
}

// GenerateAddress2 derives the address of a contract created with CREATE2
// per EIP-1014: keccak256(0xff ++ sender ++ salt ++ keccak256(initCode))[12:].
func GenerateAddress2(from, salt, initCode []byte) ([]byte, error) {
	if len(from) != common.AddressLength {
		return nil, fmt.Errorf("%w: sender must be %d bytes, got %d", ErrInvalidLength, common.AddressLength, len(from))
	}
	if len(salt) != common.HashLength {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrInvalidLength, common.HashLength, len(salt))
	}
	return crypto.Keccak256([]byte{0xff}, from, salt, crypto.Keccak256(initCode))[12:], nil
}
