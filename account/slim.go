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
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// slimAccount is the wire form in which default storage and code hashes are
// carried as empty byte strings.
type slimAccount struct {
	Nonce       *big.Int
	Balance     *big.Int
	StorageRoot []byte
	CodeHash    []byte
}

func slimHash(h, def common.Hash) []byte {
	if h == def {
		return nil
	}
	return h.Bytes()
}

// BodyToSlim converts a four-field account body to its slim form: root and
// code hash fields holding their default values become empty byte strings.
// Other fields pass through unchanged.
func BodyToSlim(body [][]byte) [][]byte {
	slim := make([][]byte, len(body))
	copy(slim, body)
	if len(slim) > 2 && bytes.Equal(slim[2], EmptyRootHash.Bytes()) {
		slim[2] = []byte{}
	}
	if len(slim) > 3 && bytes.Equal(slim[3], EmptyCodeHash.Bytes()) {
		slim[3] = []byte{}
	}
	return slim
}

// BodyFromSlim converts a slim account body back to the full form, resolving
// empty root and code hash fields to their defaults. BodyFromSlim is the
// inverse of BodyToSlim and both are idempotent.
func BodyFromSlim(slim [][]byte) [][]byte {
	body := make([][]byte, len(slim))
	copy(body, slim)
	if len(body) > 2 && len(body[2]) == 0 {
		body[2] = EmptyRootHash.Bytes()
	}
	if len(body) > 3 && len(body[3]) == 0 {
		body[3] = EmptyCodeHash.Bytes()
	}
	return body
}
